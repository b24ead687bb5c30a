package docutil

import (
	"path/filepath"
	"strings"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// Loader 文档加载器。
// 调用顺序为 Load -> Extract -> Unload，Unload 之后可再次 Load。
type Loader interface {
	// Load 打开并解析源文件。
	Load(path string) error
	// Extract 返回按页组织的文档。
	Extract() (*model.Document, error)
	// Unload 释放已加载的内容。
	Unload()
}

// SupportedExtensions 支持的文件扩展名。
var SupportedExtensions = []string{".pdf", ".txt", ".text", ".md"}

// DocTypeOf 根据扩展名判断文档类型。
func DocTypeOf(path string) (model.DocType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return model.DocTypePDF, nil
	case ".txt", ".text", ".md":
		return model.DocTypeTXT, nil
	default:
		return "", errors.ErrUnsupportedDocument.WithMessagef("unsupported document: %s", filepath.Base(path))
	}
}

// NewLoader 根据文件扩展名创建对应的加载器。
func NewLoader(path string) (Loader, error) {
	typ, err := DocTypeOf(path)
	if err != nil {
		return nil, err
	}
	if typ == model.DocTypePDF {
		return NewPDFLoader(), nil
	}
	return NewTextLoader(), nil
}
