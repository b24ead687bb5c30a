package llm

// GenerateParams 文本生成的采样参数。
type GenerateParams struct {
	// SystemPrompt 系统提示，可为空。
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Temperature 采样温度。
	Temperature float64 `json:"temperature"`
	// TopP 核采样概率阈值。
	TopP float64 `json:"top_p"`
	// TopK 候选 token 数量。
	TopK int `json:"top_k"`
	// RepeatPenalty 重复惩罚。
	RepeatPenalty float64 `json:"repeat_penalty"`
	// MaxLength 最大生成长度（token）。
	MaxLength int `json:"max_length"`
}

// DefaultGenerateParams 返回默认采样参数。
func DefaultGenerateParams() *GenerateParams {
	return &GenerateParams{
		Temperature:   0.3,
		TopP:          0.85,
		TopK:          5,
		RepeatPenalty: 1.1,
		MaxLength:     2048,
	}
}

// WithSystemPrompt 返回带系统提示的副本。
func (p *GenerateParams) WithSystemPrompt(system string) *GenerateParams {
	out := *p.orDefault()
	out.SystemPrompt = system
	return &out
}

func (p *GenerateParams) orDefault() *GenerateParams {
	if p == nil {
		return DefaultGenerateParams()
	}
	return p
}

// Resolve 为 nil 时返回默认参数。
func Resolve(p *GenerateParams) *GenerateParams {
	return p.orDefault()
}
