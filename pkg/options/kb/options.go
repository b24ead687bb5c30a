// Package kb provides knowledge base ingestion and retrieval options.
package kb

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-kb/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// 向量索引后端。
const (
	BackendFlat   = "flat"
	BackendMilvus = "milvus"
)

// DefaultSystemPrompt 问答默认系统提示。
const DefaultSystemPrompt = "你是一个严谨的知识库问答助手。请只依据给出的参考资料回答问题，资料中没有的内容请如实说明。"

// Options 知识库配置。
type Options struct {
	// DataDir 索引与元数据文件所在目录。
	DataDir string `json:"data-dir" mapstructure:"data-dir"`

	// MaxLength 入库分块的 token 上限。
	MaxLength int `json:"max-length" mapstructure:"max-length"`

	// SummaryMaxLength 摘要分段的 token 上限。
	SummaryMaxLength int `json:"summary-max-length" mapstructure:"summary-max-length"`

	// TopK 检索返回条数。
	TopK int `json:"top-k" mapstructure:"top-k"`

	// ScoreThreshold 相似度阈值，0 表示不过滤。
	ScoreThreshold float64 `json:"score-threshold" mapstructure:"score-threshold"`

	// BatchSize 每批 embedding 的分块数。
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// IndexBackend 向量索引后端（flat|milvus）。
	IndexBackend string `json:"index-backend" mapstructure:"index-backend"`

	// Workers 批量入库的并发数。
	Workers int `json:"workers" mapstructure:"workers"`

	// SystemPrompt 问答系统提示。
	SystemPrompt string `json:"system-prompt" mapstructure:"system-prompt"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		DataDir:          "_output/kb",
		MaxLength:        200,
		SummaryMaxLength: 1500,
		TopK:             3,
		BatchSize:        32,
		IndexBackend:     BackendFlat,
		Workers:          4,
		SystemPrompt:     DefaultSystemPrompt,
	}
}

// AddFlags adds flags for knowledge base options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "kb."
	fs.StringVar(&o.DataDir, p+"data-dir", o.DataDir, "Directory holding index and metadata files.")
	fs.IntVar(&o.MaxLength, p+"max-length", o.MaxLength, "Token budget of an ingested chunk.")
	fs.IntVar(&o.SummaryMaxLength, p+"summary-max-length", o.SummaryMaxLength, "Token budget of a summary segment.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of chunks returned by a query.")
	fs.Float64Var(&o.ScoreThreshold, p+"score-threshold", o.ScoreThreshold, "Drop hits scoring below this value (0 disables).")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Chunks embedded per request.")
	fs.StringVar(&o.IndexBackend, p+"index-backend", o.IndexBackend, "Vector index backend (flat|milvus).")
	fs.IntVar(&o.Workers, p+"workers", o.Workers, "Concurrent knowledge bases during batch ingestion.")
	fs.StringVar(&o.SystemPrompt, p+"system-prompt", o.SystemPrompt, "System prompt used when answering.")
}

// Validate validates the knowledge base options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.DataDir == "" {
		errs = append(errs, fmt.Errorf("kb data-dir is required"))
	}
	if o.MaxLength <= 0 {
		errs = append(errs, fmt.Errorf("kb max-length must be positive"))
	}
	if o.SummaryMaxLength <= 0 {
		errs = append(errs, fmt.Errorf("kb summary-max-length must be positive"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("kb top-k must be positive"))
	}
	if o.ScoreThreshold < -1 || o.ScoreThreshold > 1 {
		errs = append(errs, fmt.Errorf("kb score-threshold must be in [-1, 1]"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("kb batch-size must be positive"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("kb workers must be positive"))
	}
	switch o.IndexBackend {
	case BackendFlat, BackendMilvus:
	default:
		errs = append(errs, fmt.Errorf("kb index-backend %q is not supported", o.IndexBackend))
	}
	return errs
}

// Complete completes the knowledge base options with defaults.
func (o *Options) Complete() error {
	if o.IndexBackend == "" {
		o.IndexBackend = BackendFlat
	}
	if o.SystemPrompt == "" {
		o.SystemPrompt = DefaultSystemPrompt
	}
	return nil
}
