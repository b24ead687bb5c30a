package model

// Chunk 表示写入元数据库的文本块，VecIndex 与向量索引中的编号一致。
type Chunk struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	VecIndex int64  `json:"vec_index" gorm:"column:vec_index;index;not null"`
	Content  string `json:"content" gorm:"type:text;not null"`
	Chapter  string `json:"chapter" gorm:"type:varchar(255)"`
	Page     int    `json:"page" gorm:"default:0"`
}

// TableName specifies the table name for Chunk.
func (Chunk) TableName() string {
	return "chunks"
}
