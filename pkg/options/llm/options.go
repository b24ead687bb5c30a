// Package llm provides embedding and chat provider configuration options.
package llm

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-kb/pkg/llm"
	"github.com/kart-io/sentinel-kb/pkg/options"
)

var (
	_ options.IOptions = (*ProviderOptions)(nil)
	_ options.IOptions = (*ChatOptions)(nil)
)

// ProviderOptions 定义 LLM 供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（ollama, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥（openai 兼容服务需要）。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大尝试次数（含首次）。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

// ChatOptions 生成模型配置，附带采样参数。
type ChatOptions struct {
	ProviderOptions `mapstructure:",squash"`

	Temperature   float64 `json:"temperature" mapstructure:"temperature"`
	TopP          float64 `json:"top-p" mapstructure:"top-p"`
	TopK          int     `json:"top-k" mapstructure:"top-k"`
	RepeatPenalty float64 `json:"repeat-penalty" mapstructure:"repeat-penalty"`
	MaxLength     int     `json:"max-length" mapstructure:"max-length"`
}

// NewProviderOptions 创建默认 LLM 供应商配置。
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "ollama",
		BaseURL:    "http://localhost:11434",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewEmbeddingOptions 创建默认 Embedding 供应商配置。
func NewEmbeddingOptions() *ProviderOptions {
	opts := NewProviderOptions()
	opts.Model = "bge-m3"
	return opts
}

// NewChatOptions 创建默认 Chat 供应商配置。
func NewChatOptions() *ChatOptions {
	p := llm.DefaultGenerateParams()
	opts := &ChatOptions{
		ProviderOptions: *NewProviderOptions(),
		Temperature:     p.Temperature,
		TopP:            p.TopP,
		TopK:            p.TopK,
		RepeatPenalty:   p.RepeatPenalty,
		MaxLength:       p.MaxLength,
	}
	opts.Model = "qwen2.5:7b"
	return opts
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"embed_model":  o.Model,
		"chat_model":   o.Model,
		"timeout":      o.Timeout,
		"organization": o.Organization,
	}
}

// AddFlags adds flags for LLM provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Provider name (ollama, openai).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Provider API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Provider API key.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Maximum attempts per request, including the first.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "Organization ID (optional).")
}

// Validate validates the LLM provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	// OpenAI 兼容服务需要 API key
	if o.Provider == "openai" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required for openai provider"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	return errs
}

// Complete completes the LLM provider options with defaults.
func (o *ProviderOptions) Complete() error {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 1
	}
	return nil
}

// AddFlags 注册供应商参数与采样参数。
func (o *ChatOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	o.ProviderOptions.AddFlags(fs, prefixes...)
	p := options.Join(prefixes...)
	fs.Float64Var(&o.Temperature, p+"temperature", o.Temperature, "Sampling temperature.")
	fs.Float64Var(&o.TopP, p+"top-p", o.TopP, "Nucleus sampling probability.")
	fs.IntVar(&o.TopK, p+"top-k", o.TopK, "Number of candidate tokens per step.")
	fs.Float64Var(&o.RepeatPenalty, p+"repeat-penalty", o.RepeatPenalty, "Repetition penalty.")
	fs.IntVar(&o.MaxLength, p+"max-length", o.MaxLength, "Maximum generated tokens.")
}

// Validate 校验供应商与采样参数。
func (o *ChatOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := o.ProviderOptions.Validate()
	if o.Temperature < 0 {
		errs = append(errs, fmt.Errorf("temperature must not be negative"))
	}
	if o.TopP <= 0 || o.TopP > 1 {
		errs = append(errs, fmt.Errorf("top-p must be in (0, 1]"))
	}
	if o.MaxLength <= 0 {
		errs = append(errs, fmt.Errorf("max-length must be positive"))
	}
	return errs
}

// GenerateParams 转换为生成参数。
func (o *ChatOptions) GenerateParams() *llm.GenerateParams {
	return &llm.GenerateParams{
		Temperature:   o.Temperature,
		TopP:          o.TopP,
		TopK:          o.TopK,
		RepeatPenalty: o.RepeatPenalty,
		MaxLength:     o.MaxLength,
	}
}
