package store

import (
	"fmt"
	"strings"

	"github.com/kart-io/sentinel-kb/pkg/component/milvus"
)

// 向量索引后端。
const (
	BackendFlat   = backendFlat
	BackendMilvus = backendMilvus
)

// IndexFactory 为知识库创建一个空的向量索引。
type IndexFactory func(kb string) VectorIndex

// NewIndexFactory 按后端名称返回索引工厂，milvus 后端需要传入已连接的客户端。
func NewIndexFactory(backend string, client *milvus.Client) (IndexFactory, error) {
	switch strings.ToLower(backend) {
	case "", backendFlat:
		return func(string) VectorIndex { return NewFlatIndex(0) }, nil
	case backendMilvus:
		if client == nil {
			return nil, fmt.Errorf("milvus backend requires a milvus client")
		}
		return func(kb string) VectorIndex { return NewMilvusIndex(client, kb, 0) }, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", backend)
	}
}
