package store

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/pkg/component/sqlite"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

const chunkBatchSize = 200

// ChunkStore 文本块元数据库，按 vec_index 精确查找文本块。
type ChunkStore struct {
	client *sqlite.Client
	db     *gorm.DB
}

// OpenChunkStore 打开或创建元数据库，已有文件会直接挂载。
func OpenChunkStore(ctx context.Context, path string) (*ChunkStore, error) {
	client, err := sqlite.New(ctx, sqlite.NewOptions(path))
	if err != nil {
		return nil, errors.ErrMetadataWrite.WithCause(err)
	}
	db := client.DB()
	if err := db.WithContext(ctx).AutoMigrate(&model.Chunk{}); err != nil {
		_ = client.Close()
		return nil, errors.ErrMetadataWrite.WithCause(err)
	}
	return &ChunkStore{client: client, db: db}, nil
}

// Add 写入一条记录。
func (s *ChunkStore) Add(ctx context.Context, vecIndex int64, content, chapter string, page int) error {
	chunk := &model.Chunk{VecIndex: vecIndex, Content: content, Chapter: chapter, Page: page}
	if err := s.db.WithContext(ctx).Create(chunk).Error; err != nil {
		return errors.ErrMetadataWrite.WithCause(err)
	}
	return nil
}

// AddBatch 在一个事务中写入多条记录。
func (s *ChunkStore) AddBatch(ctx context.Context, chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(chunks, chunkBatchSize).Error
	})
	if err != nil {
		return errors.ErrMetadataWrite.WithCause(err)
	}
	return nil
}

// GetByID 返回编号对应的记录。没有记录返回 ErrChunkNotFound，多条记录返回 ErrChunkAmbiguous。
func (s *ChunkStore) GetByID(ctx context.Context, vecIndex int64) (*model.Chunk, error) {
	var rows []*model.Chunk
	if err := s.db.WithContext(ctx).Where("vec_index = ?", vecIndex).Limit(2).Find(&rows).Error; err != nil {
		return nil, errors.ErrMetadataRead.WithCause(err)
	}
	switch len(rows) {
	case 0:
		return nil, errors.ErrChunkNotFound.WithMessagef("no chunk with vec_index %d", vecIndex)
	case 1:
		return rows[0], nil
	default:
		return nil, errors.ErrChunkAmbiguous.WithMessagef("vec_index %d maps to multiple rows", vecIndex)
	}
}

// GetContentAndPage 返回编号对应的文本与页码。
func (s *ChunkStore) GetContentAndPage(ctx context.Context, vecIndex int64) (string, int, error) {
	chunk, err := s.GetByID(ctx, vecIndex)
	if err != nil {
		return "", 0, err
	}
	return chunk.Content, chunk.Page, nil
}

// GetAllContents 按写入顺序返回所有文本。
func (s *ChunkStore) GetAllContents(ctx context.Context) ([]string, error) {
	var contents []string
	if err := s.db.WithContext(ctx).Model(&model.Chunk{}).Order("id ASC").Pluck("content", &contents).Error; err != nil {
		return nil, errors.ErrMetadataRead.WithCause(err)
	}
	return contents, nil
}

// VecIndexes 返回所有编号。
func (s *ChunkStore) VecIndexes(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Chunk{}).Order("id ASC").Pluck("vec_index", &ids).Error; err != nil {
		return nil, errors.ErrMetadataRead.WithCause(err)
	}
	return ids, nil
}

// MaxVecIndex 返回最大编号，没有记录时返回 -1。
func (s *ChunkStore) MaxVecIndex(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := s.db.WithContext(ctx).Model(&model.Chunk{}).Select("MAX(vec_index)").Row().Scan(&maxID); err != nil {
		return 0, errors.ErrMetadataRead.WithCause(err)
	}
	if !maxID.Valid {
		return -1, nil
	}
	return maxID.Int64, nil
}

// DeleteByVecIndexes 删除给定编号的记录。
func (s *ChunkStore) DeleteByVecIndexes(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("vec_index IN ?", ids).Delete(&model.Chunk{})
	if result.Error != nil {
		return 0, errors.ErrMetadataWrite.WithCause(result.Error)
	}
	return result.RowsAffected, nil
}

// Count 返回记录数。
func (s *ChunkStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Chunk{}).Count(&count).Error; err != nil {
		return 0, errors.ErrMetadataRead.WithCause(err)
	}
	return count, nil
}

// Close 关闭数据库。
func (s *ChunkStore) Close() error {
	return s.client.Close()
}
