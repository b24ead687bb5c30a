package biz

import (
	"context"
	"strings"
	"unicode"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-kb/internal/pkg/rag/splitter"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/textutil"
)

const (
	clauseComma = "，"
	ellipsis    = "……"
)

// SummaryPrompt 摘要提示前缀。
const SummaryPrompt = "请用简洁的中文总结下面这段文字的主要内容：\n\n"

// SummarizerConfig 摘要配置。
type SummarizerConfig struct {
	// MaxLength 每段摘要输入的 token 上限。
	MaxLength int
}

// Summarizer 按段落顺序摘要整个知识库。
type Summarizer struct {
	generator *Generator
	config    *SummarizerConfig
}

// NewSummarizer 创建摘要器实例。
func NewSummarizer(generator *Generator, config *SummarizerConfig) *Summarizer {
	return &Summarizer{generator: generator, config: config}
}

// Segments 拼接全部分块后按 MaxLength 重新切分。
// 段落在逗号处被截断时去掉结尾的全角逗号并补上省略号。
func (s *Summarizer) Segments(contents []string) []string {
	text := strings.Join(contents, "\n")
	var segments []string
	for _, piece := range splitter.Split(text, s.config.MaxLength) {
		if textutil.IsBlank(piece) {
			continue
		}
		segments = append(segments, closeClause(piece))
	}
	return segments
}

func closeClause(piece string) string {
	trimmed := strings.TrimRightFunc(piece, unicode.IsSpace)
	if strings.HasSuffix(trimmed, clauseComma) {
		return strings.TrimSuffix(trimmed, clauseComma) + ellipsis
	}
	return piece
}

// Summarize 依次摘要每一段，任一段失败即返回错误。
func (s *Summarizer) Summarize(ctx context.Context, contents []string) ([]string, error) {
	segments := s.Segments(contents)
	summaries := make([]string, 0, len(segments))
	for i, seg := range segments {
		summary, err := s.generator.Generate(ctx, SummaryPrompt+seg)
		if err != nil {
			return nil, err
		}
		logger.Debugw("segment summarized", "segment", i, "of", len(segments))
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
