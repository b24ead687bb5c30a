package store

import (
	"path/filepath"
	"regexp"

	"github.com/kart-io/sentinel-kb/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

const (
	// IndexSuffix 向量索引文件后缀。
	IndexSuffix = "_index.db"
	// TextSuffix 元数据库文件后缀。
	TextSuffix = "_text.db"
	// RegistryFile 文件登记表文件名。
	RegistryFile = "file_database.db"
)

var kbNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,127}$`)

// Artifacts 一个知识库在磁盘上的两个文件。
type Artifacts struct {
	Index string
	Text  string
}

// ArtifactsFor 返回知识库的文件路径。
func ArtifactsFor(dataDir, kb string) Artifacts {
	return Artifacts{
		Index: filepath.Join(dataDir, kb+IndexSuffix),
		Text:  filepath.Join(dataDir, kb+TextSuffix),
	}
}

// Exist 两个文件都存在时返回 true。
func (a Artifacts) Exist() bool {
	return docutil.FileExists(a.Index) && docutil.FileExists(a.Text)
}

// Remove 删除两个文件，不存在的文件会被忽略。
func (a Artifacts) Remove() error {
	return docutil.RemoveFiles(a.Index, a.Index+".tmp", a.Text)
}

// RegistryPath 返回文件登记表路径。
func RegistryPath(dataDir string) string {
	return filepath.Join(dataDir, RegistryFile)
}

// ValidateKBName 校验知识库名称，名称会直接用于文件名。
func ValidateKBName(kb string) error {
	if !kbNamePattern.MatchString(kb) {
		return errors.ErrInvalidArgument.WithMessagef("invalid knowledge base name %q", kb)
	}
	return nil
}

// HashFileName 返回文件名（不含目录）的 SHA-256。
func HashFileName(name string) string {
	return textutil.HashString(filepath.Base(name))
}

// DefaultKBName 未指定知识库名称时由文件名派生。
func DefaultKBName(filename string) string {
	return "kb_" + HashFileName(filename)[:16]
}
