package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/pkg/errors"
	"github.com/kart-io/sentinel-kb/pkg/llm"
)

// NoCitationMarker 参考资料前缀，提示模型回答时无需标注出处。
const NoCitationMarker = "【无需引用】"

// GeneratorConfig 生成器配置。
type GeneratorConfig struct {
	// SystemPrompt 系统提示。
	SystemPrompt string
	// Params 采样参数，为 nil 时使用默认值。
	Params *llm.GenerateParams
}

// Generator 负责组装提示并生成回答。
type Generator struct {
	provider llm.GenerationProvider
	config   *GeneratorConfig
	metrics  *metrics.KBMetrics
}

// NewGenerator 创建生成器实例。
func NewGenerator(provider llm.GenerationProvider, config *GeneratorConfig, m *metrics.KBMetrics) *Generator {
	if m == nil {
		m = metrics.Default()
	}
	return &Generator{provider: provider, config: config, metrics: m}
}

// BuildPrompt 每段参考资料以 NoCitationMarker 开头，随后给出最高相似度与问题。
func BuildPrompt(question string, result *QueryResult) string {
	var sb strings.Builder
	sb.WriteString("参考资料：\n")
	for _, content := range result.Contents {
		sb.WriteString(NoCitationMarker)
		sb.WriteString(strings.TrimSpace(content))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\n参考资料与问题的最高相似度为 %.4f，相似度越低，资料越可能与问题无关。\n", result.MaxScore())
	sb.WriteString("\n问题：")
	sb.WriteString(question)
	return sb.String()
}

// Generate 以系统提示和配置的采样参数调用生成模型。
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	params := g.config.Params.WithSystemPrompt(g.config.SystemPrompt)

	start := time.Now()
	text, err := g.provider.Generate(ctx, prompt, params)
	g.metrics.RecordGenerate(time.Since(start), err)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Errorw("generation failed", "provider", g.provider.Name(), "error", err.Error())
		return "", errors.ErrGenerationFailed.WithCause(err)
	}
	logger.Debugw("generation finished", "provider", g.provider.Name(), "length", len(text))
	return text, nil
}

// Answer 基于检索结果回答问题。
func (g *Generator) Answer(ctx context.Context, question string, result *QueryResult) (*Answer, error) {
	prompt := BuildPrompt(question, result)
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Answer{Answer: text, Prompt: prompt, Sources: result}, nil
}
