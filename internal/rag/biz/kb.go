package biz

import (
	"context"
	stderrors "errors"

	"github.com/kart-io/sentinel-kb/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-kb/internal/rag/store"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// knowledgeBase 一个已打开的知识库：向量索引与元数据库。
type knowledgeBase struct {
	name      string
	artifacts store.Artifacts
	index     store.VectorIndex
	chunks    *store.ChunkStore
}

// createKB 删除旧文件后创建空知识库。
func createKB(ctx context.Context, dataDir, name string, newIndex store.IndexFactory) (*knowledgeBase, error) {
	artifacts := store.ArtifactsFor(dataDir, name)
	if err := artifacts.Remove(); err != nil {
		return nil, errors.ErrMetadataWrite.WithCause(err)
	}
	if err := docutil.EnsureDir(dataDir); err != nil {
		return nil, errors.ErrMetadataWrite.WithCause(err)
	}

	index := newIndex(name)
	if err := index.Reset(ctx); err != nil {
		return nil, errors.ErrIndexPersist.WithCause(err)
	}
	chunks, err := store.OpenChunkStore(ctx, artifacts.Text)
	if err != nil {
		return nil, err
	}
	return &knowledgeBase{name: name, artifacts: artifacts, index: index, chunks: chunks}, nil
}

// openKB 挂载磁盘上已有的知识库，文件不完整时返回 ErrKnowledgeBaseNotFound。
func openKB(ctx context.Context, dataDir, name string, newIndex store.IndexFactory) (*knowledgeBase, error) {
	artifacts := store.ArtifactsFor(dataDir, name)
	if !artifacts.Exist() {
		return nil, errors.ErrKnowledgeBaseNotFound.WithMessagef("knowledge base %q not found", name)
	}

	index := newIndex(name)
	if err := index.Load(ctx, artifacts.Index); err != nil {
		return nil, err
	}
	chunks, err := store.OpenChunkStore(ctx, artifacts.Text)
	if err != nil {
		return nil, err
	}
	return &knowledgeBase{name: name, artifacts: artifacts, index: index, chunks: chunks}, nil
}

// Close 关闭元数据库。
func (kb *knowledgeBase) Close() error {
	if kb == nil || kb.chunks == nil {
		return nil
	}
	return kb.chunks.Close()
}

// destroy 关闭并删除知识库的全部文件，milvus 后端同时删除集合。
func (kb *knowledgeBase) destroy(ctx context.Context) error {
	return stderrors.Join(kb.Close(), kb.index.Reset(ctx), kb.artifacts.Remove())
}
