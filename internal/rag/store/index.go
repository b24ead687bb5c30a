package store

import (
	"context"
)

// Hit 表示一次检索命中。
type Hit struct {
	// ID 向量编号，与元数据库中的 vec_index 一致。
	ID int64
	// Score 内积相似度。
	Score float32
}

// VectorIndex 定义以调用方编号为键的内积向量索引。
// 写入前向量会做 L2 归一化，查询向量按原样使用。
type VectorIndex interface {
	// Add 写入向量，vectors 与 ids 一一对应。索引为空时以第一批向量的维度建立索引。
	Add(ctx context.Context, vectors [][]float32, ids []int64) error

	// Search 对每个查询向量返回相似度最高的 k 个结果，按相似度降序排列。
	Search(ctx context.Context, queries [][]float32, k int) ([][]Hit, error)

	// Delete 删除给定编号，返回实际删除的数量。
	Delete(ctx context.Context, ids []int64) (int, error)

	// Save 将整个索引写入文件。
	Save(ctx context.Context, path string) error

	// Load 从文件恢复整个索引。
	Load(ctx context.Context, path string) error

	// Reset 清空索引并保留维度。
	Reset(ctx context.Context) error

	// IDs 返回当前所有编号。
	IDs(ctx context.Context) ([]int64, error)

	// Len 返回当前向量数量。
	Len(ctx context.Context) (int, error)

	// Dim 返回维度，尚未建立时为 0。
	Dim() int
}
