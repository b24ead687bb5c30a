package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/internal/rag/store"
)

// committer 顺序双写：先写向量索引，再写元数据库。
// 元数据写入失败时从索引中删除本批编号，保证两边的编号集合一致。
type committer struct {
	index   store.VectorIndex
	chunks  *store.ChunkStore
	metrics *metrics.KBMetrics
}

func newCommitter(kb *knowledgeBase, m *metrics.KBMetrics) *committer {
	return &committer{index: kb.index, chunks: kb.chunks, metrics: m}
}

// Commit 写入一批分块，vectors 与 chunks 一一对应，编号取自 chunk.VecIndex。
func (c *committer) Commit(ctx context.Context, vectors [][]float32, chunks []*model.Chunk) error {
	ids := make([]int64, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.VecIndex
	}

	if err := c.index.Add(ctx, vectors, ids); err != nil {
		return err
	}

	if err := c.chunks.AddBatch(ctx, chunks); err != nil {
		removed, delErr := c.index.Delete(context.WithoutCancel(ctx), ids)
		c.metrics.RecordRollback()
		logger.Warnw("metadata write failed, vectors rolled back",
			"batch", len(ids),
			"removed", removed,
			"error", err.Error(),
		)
		if delErr != nil {
			logger.Errorw("vector rollback failed", "error", delErr.Error())
		}
		return err
	}
	return nil
}
