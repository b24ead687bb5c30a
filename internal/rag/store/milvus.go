package store

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/kart-io/sentinel-kb/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-kb/pkg/component/milvus"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

var invalidCollectionChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// CollectionName 将知识库名称转换为合法的 Milvus 集合名。
func CollectionName(kb string) string {
	name := invalidCollectionChars.ReplaceAllString(kb, "_")
	if name == "" || !(name[0] == '_' || (name[0] >= 'A' && name[0] <= 'Z') || (name[0] >= 'a' && name[0] <= 'z')) {
		name = "kb_" + name
	}
	return name
}

// MilvusIndex 以 Milvus 集合作为向量索引。
// Save 会刷新集合并在本地写入一个记录集合名与维度的标记文件。
type MilvusIndex struct {
	client     *milvus.Client
	collection string

	mu      sync.Mutex
	dim     int
	created bool
}

var _ VectorIndex = (*MilvusIndex)(nil)

// NewMilvusIndex 创建 Milvus 向量索引。
func NewMilvusIndex(client *milvus.Client, kb string, dim int) *MilvusIndex {
	return &MilvusIndex{
		client:     client,
		collection: CollectionName(kb),
		dim:        dim,
	}
}

// Collection 返回集合名。
func (m *MilvusIndex) Collection() string {
	return m.collection
}

func (m *MilvusIndex) ensureCollection(ctx context.Context, dim int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dim == 0 {
		m.dim = dim
	}
	if m.created {
		return nil
	}
	err := m.client.CreateCollection(ctx, &milvus.CollectionSchema{
		Name:        m.collection,
		Description: "knowledge base " + m.collection,
		Dimension:   m.dim,
	})
	if err != nil {
		return err
	}
	m.created = true
	return nil
}

// Add 归一化后按调用方编号写入。
func (m *MilvusIndex) Add(ctx context.Context, vectors [][]float32, ids []int64) error {
	if len(vectors) != len(ids) {
		return errors.ErrLengthMismatch.WithMessagef("%d vectors, %d ids", len(vectors), len(ids))
	}
	if len(vectors) == 0 {
		return nil
	}

	dim := m.Dim()
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim || dim == 0 {
			return errors.ErrDimensionMismatch.WithMessagef("vector %d has dimension %d, index expects %d", i, len(v), dim)
		}
	}

	if err := m.ensureCollection(ctx, dim); err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}
	if err := m.client.Insert(ctx, m.collection, ids, textutil.NormalizeRows(vectors)); err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}
	return nil
}

// Search 在集合上执行内积检索，集合不存在时返回空结果。
func (m *MilvusIndex) Search(ctx context.Context, queries [][]float32, k int) ([][]Hit, error) {
	dim := m.Dim()
	for q, query := range queries {
		if dim > 0 && len(query) != dim {
			return nil, errors.ErrQueryDimension.WithMessagef("query %d has dimension %d, index expects %d", q, len(query), dim)
		}
	}

	results := make([][]Hit, len(queries))
	for i := range results {
		results[i] = []Hit{}
	}
	if k <= 0 || len(queries) == 0 {
		return results, nil
	}
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return results, nil
	}

	raw, err := m.client.Search(ctx, m.collection, queries, k)
	if err != nil {
		return nil, err
	}
	for q, hits := range raw {
		out := make([]Hit, 0, len(hits))
		for _, h := range hits {
			out = append(out, Hit{ID: h.ID, Score: h.Score})
		}
		results[q] = out
	}
	return results, nil
}

// Delete 按编号删除。
func (m *MilvusIndex) Delete(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := m.client.DeleteByIDs(ctx, m.collection, ids)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Save 刷新集合并写入标记文件。
func (m *MilvusIndex) Save(ctx context.Context, path string) error {
	if err := m.client.Flush(ctx, m.collection); err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}
	err := writeBolt(path, func(tx *bbolt.Tx) error {
		return putMeta(tx, backendMilvus, m.Dim(), m.collection)
	})
	if err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}
	return nil
}

// Load 读取标记文件并加载对应集合。
func (m *MilvusIndex) Load(ctx context.Context, path string) error {
	var meta *indexMeta
	err := readBolt(path, func(tx *bbolt.Tx) error {
		var err error
		meta, err = getMeta(tx)
		return err
	})
	if err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}
	if meta.backend != backendMilvus {
		return errors.ErrIndexPersist.WithCause(fmt.Errorf("index file belongs to %q backend", meta.backend))
	}

	if err := m.client.LoadCollection(ctx, meta.collection); err != nil {
		return errors.ErrIndexPersist.WithCause(err)
	}

	m.mu.Lock()
	m.collection = meta.collection
	m.dim = meta.dim
	m.created = true
	m.mu.Unlock()
	return nil
}

// Reset 删除集合，下次写入时按原维度重建。
func (m *MilvusIndex) Reset(ctx context.Context) error {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return err
	}
	if exists {
		if err := m.client.DropCollection(ctx, m.collection); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.created = false
	m.mu.Unlock()
	return nil
}

// IDs 查询集合中的全部编号。
func (m *MilvusIndex) IDs(ctx context.Context) ([]int64, error) {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil || !exists {
		return nil, err
	}
	return m.client.QueryIDs(ctx, m.collection)
}

// Len 返回集合中的实体数量。
func (m *MilvusIndex) Len(ctx context.Context) (int, error) {
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil || !exists {
		return 0, err
	}
	n, err := m.client.GetCollectionStats(ctx, m.collection)
	return int(n), err
}

// Dim 返回维度。
func (m *MilvusIndex) Dim() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dim
}
