package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/layout"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/splitter"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/pkg/errors"
	"github.com/kart-io/sentinel-kb/pkg/llm"
)

// IndexerConfig 索引器配置。
type IndexerConfig struct {
	// MaxLength 分块 token 上限。
	MaxLength int
	// BatchSize 每次 embedding 请求的分块数。
	BatchSize int
}

// Indexer 负责把文档写入知识库。
type Indexer struct {
	embedder llm.EmbeddingProvider
	config   *IndexerConfig
	metrics  *metrics.KBMetrics
}

// NewIndexer 创建索引器实例。
func NewIndexer(embedder llm.EmbeddingProvider, config *IndexerConfig, m *metrics.KBMetrics) *Indexer {
	if m == nil {
		m = metrics.Default()
	}
	return &Indexer{embedder: embedder, config: config, metrics: m}
}

// Chunk 从文档切出的分块，尚未分配编号。
type Chunk struct {
	Content string
	Chapter string
	Page    int
}

// ChunkDocument 逐页重建结构并分块，跳过只含空白的分块。
// 章节取重建文本中最近出现的标题，可以跨页延续。
func ChunkDocument(doc *model.Document, maxLength int) []Chunk {
	sp := splitter.NewSplitter(maxLength)

	var (
		chunks  []Chunk
		chapter string
	)
	for _, page := range doc.Pages {
		text := layout.Reconstruct(page.PageContent)
		for _, piece := range sp.Split(text) {
			if title, ok := layout.LastHeading(piece); ok {
				chapter = title
			}
			if textutil.IsBlank(piece) {
				continue
			}
			chunks = append(chunks, Chunk{Content: piece, Chapter: chapter, Page: page.PageNum})
		}
	}
	return chunks
}

// Index 将文档写入空知识库，编号从 0 开始顺序分配，完成后持久化索引。
func (i *Indexer) Index(ctx context.Context, kb *knowledgeBase, doc *model.Document, maxLength int) (int, error) {
	if maxLength <= 0 {
		maxLength = i.config.MaxLength
	}
	chunks := ChunkDocument(doc, maxLength)
	if len(chunks) == 0 {
		return 0, errors.ErrInvalidDocument.WithMessagef("document %s has no text", doc.SourcePath)
	}

	batchSize := i.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	c := newCommitter(kb, i.metrics)
	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		rows := make([]*model.Chunk, len(batch))
		for j, ch := range batch {
			texts[j] = ch.Content
			rows[j] = &model.Chunk{
				VecIndex: int64(start + j),
				Content:  ch.Content,
				Chapter:  textutil.TruncateString(ch.Chapter, 250),
				Page:     ch.Page,
			}
		}

		vectors, err := i.embed(ctx, texts)
		if err != nil {
			return 0, err
		}
		if err := c.Commit(ctx, vectors, rows); err != nil {
			return 0, err
		}
		logger.Debugw("batch committed", "kb", kb.name, "from", start, "to", end)
	}

	if err := kb.index.Save(ctx, kb.artifacts.Index); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (i *Indexer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := i.embedder.Embed(ctx, texts)
	i.metrics.RecordEmbed(len(texts), err)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.ErrEmbeddingFailed.WithCause(err)
	}
	if len(vectors) != len(texts) {
		return nil, errors.ErrEmbeddingFailed.WithMessagef("embedding provider returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}
