package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/kart-io/sentinel-kb/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// FlatIndex 基于暴力内积计算的内存向量索引，持久化为单个 bbolt 文件。
// 不做编号去重，同一编号可以出现多次。
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	ids     []int64
	vectors [][]float32
}

var _ VectorIndex = (*FlatIndex)(nil)

// NewFlatIndex 创建指定维度的索引，dim 为 0 时在第一次写入时确定维度。
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Add 归一化后写入向量，任何校验失败都不会修改索引。
func (f *FlatIndex) Add(_ context.Context, vectors [][]float32, ids []int64) error {
	if len(vectors) != len(ids) {
		return errors.ErrLengthMismatch.WithMessagef("%d vectors, %d ids", len(vectors), len(ids))
	}
	if len(vectors) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dim := f.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return errors.ErrDimensionMismatch.WithMessage("empty vector")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return errors.ErrDimensionMismatch.WithMessagef("vector %d has dimension %d, index expects %d", i, len(v), dim)
		}
	}

	f.dim = dim
	for i, v := range vectors {
		f.ids = append(f.ids, ids[i])
		f.vectors = append(f.vectors, textutil.Normalize(v))
	}
	return nil
}

// Search 计算查询向量与所有向量的内积，相同分数按写入顺序排列。
func (f *FlatIndex) Search(_ context.Context, queries [][]float32, k int) ([][]Hit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	results := make([][]Hit, len(queries))
	for q, query := range queries {
		if f.dim > 0 && len(query) != f.dim {
			return nil, errors.ErrQueryDimension.WithMessagef("query %d has dimension %d, index expects %d", q, len(query), f.dim)
		}
		results[q] = f.topK(query, k)
	}
	return results, nil
}

func (f *FlatIndex) topK(query []float32, k int) []Hit {
	if k <= 0 || len(f.vectors) == 0 {
		return []Hit{}
	}

	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{ID: f.ids[i], Score: textutil.Dot(query, v)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

// Delete 删除所有匹配编号的向量。
func (f *FlatIndex) Delete(_ context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	keptIDs := f.ids[:0]
	keptVecs := f.vectors[:0]
	removed := 0
	for i, id := range f.ids {
		if _, ok := drop[id]; ok {
			removed++
			continue
		}
		keptIDs = append(keptIDs, id)
		keptVecs = append(keptVecs, f.vectors[i])
	}
	clear(f.vectors[len(keptVecs):])
	f.ids = keptIDs
	f.vectors = keptVecs
	return removed, nil
}

// Save 写入 path，先写临时文件再替换。
func (f *FlatIndex) Save(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	err := writeBolt(path, func(tx *bbolt.Tx) error {
		if err := putMeta(tx, backendFlat, f.dim, ""); err != nil {
			return err
		}
		b, err := tx.CreateBucketIfNotExists(bucketVectors)
		if err != nil {
			return err
		}
		for i, v := range f.vectors {
			if err := b.Put(encodeUint64(uint64(i)), encodeVector(f.ids[i], v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}
	return nil
}

// Load 读取完整文件后才替换内存中的索引。
func (f *FlatIndex) Load(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		dim     int
		ids     []int64
		vectors [][]float32
	)
	err := readBolt(path, func(tx *bbolt.Tx) error {
		meta, err := getMeta(tx)
		if err != nil {
			return err
		}
		if meta.backend != backendFlat {
			return fmt.Errorf("index file belongs to %q backend", meta.backend)
		}
		dim = meta.dim

		b := tx.Bucket(bucketVectors)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			id, vec, err := decodeVector(v, dim)
			if err != nil {
				return err
			}
			ids = append(ids, id)
			vectors = append(vectors, vec)
			return nil
		})
	})
	if err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}

	f.mu.Lock()
	f.dim = dim
	f.ids = ids
	f.vectors = vectors
	f.mu.Unlock()
	return nil
}

// Reset 丢弃所有向量。
func (f *FlatIndex) Reset(_ context.Context) error {
	f.mu.Lock()
	f.ids = nil
	f.vectors = nil
	f.mu.Unlock()
	return nil
}

// IDs 返回编号副本。
func (f *FlatIndex) IDs(_ context.Context) ([]int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.ids), nil
}

// Len 返回向量数量。
func (f *FlatIndex) Len(_ context.Context) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids), nil
}

// Dim 返回维度。
func (f *FlatIndex) Dim() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}
