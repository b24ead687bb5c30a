// Package options 定义各组件选项的公共接口。
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// Join 用 "." 连接前缀，非空时补上结尾的 "."。
// 例如 Join("cache") + "redis.host" 得到 "cache.redis.host"，与 viper 的嵌套键一致。
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions 各组件选项实现的接口。
type IOptions interface {
	// Validate 返回全部校验错误。
	Validate() []error

	// AddFlags 注册标志，prefixes 决定标志名前缀。
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}
