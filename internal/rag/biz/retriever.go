package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/pkg/errors"
	"github.com/kart-io/sentinel-kb/pkg/llm"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// TopK 默认返回条数。
	TopK int
	// ScoreThreshold 默认相似度阈值，不大于 0 时不过滤。
	ScoreThreshold float64
}

// Retriever 负责向量检索。
type Retriever struct {
	embedder llm.EmbeddingProvider
	config   *RetrieverConfig
	metrics  *metrics.KBMetrics
}

// NewRetriever 创建检索器实例。
func NewRetriever(embedder llm.EmbeddingProvider, config *RetrieverConfig, m *metrics.KBMetrics) *Retriever {
	if m == nil {
		m = metrics.Default()
	}
	return &Retriever{embedder: embedder, config: config, metrics: m}
}

func (r *Retriever) resolve(opts *QueryOptions) (int, float64) {
	topK, threshold := r.config.TopK, r.config.ScoreThreshold
	if opts != nil {
		if opts.TopK > 0 {
			topK = opts.TopK
		}
		if opts.ScoreThreshold != 0 {
			threshold = opts.ScoreThreshold
		}
	}
	return topK, threshold
}

// Retrieve 向量化问题并检索，阈值过滤后回查元数据。
// 元数据缺失或对应多行的编号会被跳过。
func (r *Retriever) Retrieve(ctx context.Context, kb *knowledgeBase, question string, opts *QueryOptions) (*QueryResult, error) {
	start := time.Now()
	result, dropped, err := r.retrieve(ctx, kb, question, opts)
	hits := 0
	if result != nil {
		hits = result.Len()
	}
	r.metrics.RecordQuery(time.Since(start), hits, dropped, err)
	return result, err
}

func (r *Retriever) retrieve(ctx context.Context, kb *knowledgeBase, question string, opts *QueryOptions) (*QueryResult, int, error) {
	topK, threshold := r.resolve(opts)
	if topK <= 0 {
		return nil, 0, errors.ErrInvalidArgument.WithMessage("top-k must be positive")
	}

	vec, err := r.embedder.EmbedSingle(ctx, question)
	r.metrics.RecordEmbed(1, err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, errors.ErrEmbeddingFailed.WithCause(err)
	}

	hits, err := kb.index.Search(ctx, [][]float32{vec}, topK)
	if err != nil {
		return nil, 0, err
	}

	result := &QueryResult{KBName: kb.name, Question: question}
	dropped := 0
	if len(hits) == 0 {
		return result, 0, nil
	}
	for _, hit := range hits[0] {
		if threshold > 0 && float64(hit.Score) < threshold {
			dropped++
			continue
		}
		content, page, err := kb.chunks.GetContentAndPage(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, errors.ErrChunkNotFound) || errors.Is(err, errors.ErrChunkAmbiguous) {
				logger.Warnw("skip hit without metadata", "kb", kb.name, "id", hit.ID, "error", err.Error())
				dropped++
				continue
			}
			return nil, dropped, err
		}
		result.append(hit.ID, content, page, hit.Score)
	}

	logger.Infow("query finished", "kb", kb.name, "top_k", topK, "hits", result.Len(), "dropped", dropped)
	return result, dropped, nil
}
