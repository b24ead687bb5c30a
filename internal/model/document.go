// Package model defines the data models for the knowledge base.
package model

// DocType 文档类型。
type DocType string

const (
	// DocTypePDF PDF 文档。
	DocTypePDF DocType = "PDF"
	// DocTypeTXT 纯文本文档。
	DocTypeTXT DocType = "TXT"
)

// Page 表示文档中的一页原始文本。
type Page struct {
	// PageNum 页码，从 1 开始。
	PageNum int `json:"page_num"`
	// PageContent 页面原始文本。
	PageContent string `json:"page_content"`
}

// Document 表示加载到内存中的文档，不做持久化。
type Document struct {
	// SourcePath 源文件路径。
	SourcePath string `json:"source_path"`
	// Type 文档类型。
	Type DocType `json:"type"`
	// Pages 按页码排序的页面列表。
	Pages []Page `json:"pages"`
}

// PageCount 返回页数。
func (d *Document) PageCount() int {
	return len(d.Pages)
}
