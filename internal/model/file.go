package model

import "time"

// FileRecord 文件登记表记录，记录源文件与知识库的对应关系。
type FileRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	KBName      string    `json:"kb_name" gorm:"column:kb_name;type:varchar(128);index;not null"`
	Filename    string    `json:"filename" gorm:"type:varchar(512);index;not null"`
	ContentHash string    `json:"content_hash" gorm:"type:varchar(64);index"`
	Size        int64     `json:"size" gorm:"default:0"`
	Deleted     bool      `json:"deleted" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for FileRecord.
func (FileRecord) TableName() string {
	return "files"
}
