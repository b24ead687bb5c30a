package store

import (
	"context"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/pkg/component/sqlite"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// FileRegistry 文件登记表，记录源文件被导入到哪个知识库。
// 查询不到时返回空列表。
type FileRegistry struct {
	client *sqlite.Client
	db     *gorm.DB
}

// OpenFileRegistry 打开或创建文件登记表。
func OpenFileRegistry(ctx context.Context, path string) (*FileRegistry, error) {
	client, err := sqlite.New(ctx, sqlite.NewOptions(path))
	if err != nil {
		return nil, errors.ErrMetadataWrite.WithCause(err)
	}
	db := client.DB()
	if err := db.WithContext(ctx).AutoMigrate(&model.FileRecord{}); err != nil {
		_ = client.Close()
		return nil, errors.ErrMetadataWrite.WithCause(err)
	}
	return &FileRegistry{client: client, db: db}, nil
}

// Add 登记一个文件，未设置 ID 时自动生成。
func (r *FileRegistry) Add(ctx context.Context, rec *model.FileRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return errors.ErrMetadataWrite.WithCause(err)
	}
	return nil
}

func (r *FileRegistry) find(ctx context.Context, column, value string) ([]*model.FileRecord, error) {
	var records []*model.FileRecord
	err := r.db.WithContext(ctx).
		Where(column+" = ? AND deleted = ?", value, false).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.ErrMetadataRead.WithCause(err)
	}
	return records, nil
}

// SearchByName 按文件名查找未删除的记录。
func (r *FileRegistry) SearchByName(ctx context.Context, filename string) ([]*model.FileRecord, error) {
	return r.find(ctx, "filename", filename)
}

// SearchByHash 按内容哈希查找未删除的记录。
func (r *FileRegistry) SearchByHash(ctx context.Context, hash string) ([]*model.FileRecord, error) {
	return r.find(ctx, "content_hash", hash)
}

// SearchByKB 按知识库名称查找未删除的记录。
func (r *FileRegistry) SearchByKB(ctx context.Context, kb string) ([]*model.FileRecord, error) {
	return r.find(ctx, "kb_name", kb)
}

// DeleteByName 软删除文件名对应的记录，返回删除数量。
func (r *FileRegistry) DeleteByName(ctx context.Context, filename string) (int64, error) {
	return r.softDelete(ctx, "filename", filename)
}

// DeleteByKB 软删除知识库对应的记录。
func (r *FileRegistry) DeleteByKB(ctx context.Context, kb string) (int64, error) {
	return r.softDelete(ctx, "kb_name", kb)
}

func (r *FileRegistry) softDelete(ctx context.Context, column, value string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.FileRecord{}).
		Where(column+" = ? AND deleted = ?", value, false).
		Update("deleted", true)
	if result.Error != nil {
		return 0, errors.ErrMetadataWrite.WithCause(result.Error)
	}
	return result.RowsAffected, nil
}

// List 返回所有未删除的记录。
func (r *FileRegistry) List(ctx context.Context) ([]*model.FileRecord, error) {
	var records []*model.FileRecord
	if err := r.db.WithContext(ctx).Where("deleted = ?", false).Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, errors.ErrMetadataRead.WithCause(err)
	}
	return records, nil
}

// Close 关闭数据库。
func (r *FileRegistry) Close() error {
	return r.client.Close()
}
