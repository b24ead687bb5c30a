// Package json 封装 JSON 编解码。
// amd64/arm64 上使用 sonic，其余平台回退到 encoding/json。
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

var (
	// Marshal 编码 v。
	Marshal func(v any) ([]byte, error)
	// Unmarshal 解码 data 到 v。
	Unmarshal func(data []byte, v any) error
	// NewEncoder 创建写入 w 的编码器。
	NewEncoder func(w io.Writer) Encoder
	// NewDecoder 创建读取 r 的解码器。
	NewDecoder func(r io.Reader) Decoder

	usingSonic bool
)

// Encoder JSON 编码器。
type Encoder interface {
	Encode(v any) error
}

// Decoder JSON 解码器。
type Decoder interface {
	Decode(v any) error
}

func init() {
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		useSonic(sonic.ConfigStd)
		return
	}

	Marshal = stdjson.Marshal
	Unmarshal = stdjson.Unmarshal
	NewEncoder = func(w io.Writer) Encoder { return stdjson.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return stdjson.NewDecoder(r) }
	usingSonic = false
}

// ConfigStd 的输出与 encoding/json 一致（map 键排序、HTML 转义）。
func useSonic(api sonic.API) {
	Marshal = api.Marshal
	Unmarshal = api.Unmarshal
	NewEncoder = func(w io.Writer) Encoder { return api.NewEncoder(w) }
	NewDecoder = func(r io.Reader) Decoder { return api.NewDecoder(r) }
	usingSonic = true
}

// IsUsingSonic 是否使用 sonic。
func IsUsingSonic() bool {
	return usingSonic
}
