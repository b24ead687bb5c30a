package docutil

import (
	"os"
	"strings"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// PageSeparator 纯文本中的分页符。
const PageSeparator = "\f"

// TextLoader 纯文本加载器，按换页符分页，没有换页符时整个文件为一页。
type TextLoader struct {
	path    string
	content string
	loaded  bool
}

var _ Loader = (*TextLoader)(nil)

// NewTextLoader 创建纯文本加载器。
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load 读取文件内容。
func (l *TextLoader) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ErrInvalidDocument.WithCause(err)
	}
	l.path = path
	l.content = strings.ReplaceAll(string(data), "\r\n", "\n")
	l.loaded = true
	return nil
}

// Extract 返回分页后的文档。
func (l *TextLoader) Extract() (*model.Document, error) {
	if !l.loaded {
		return nil, errors.ErrInvalidArgument.WithMessage("text loader: document not loaded")
	}

	parts := strings.Split(l.content, PageSeparator)
	doc := &model.Document{
		SourcePath: l.path,
		Type:       model.DocTypeTXT,
		Pages:      make([]model.Page, 0, len(parts)),
	}
	for i, p := range parts {
		doc.Pages = append(doc.Pages, model.Page{PageNum: i + 1, PageContent: p})
	}
	return doc, nil
}

// Unload 释放已读取的内容。
func (l *TextLoader) Unload() {
	l.path = ""
	l.content = ""
	l.loaded = false
}
