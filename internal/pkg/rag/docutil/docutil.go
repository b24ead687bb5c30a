// Package docutil 提供文档加载器以及文件处理相关的工具函数。
package docutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// FindFiles 在目录中查找匹配指定扩展名的文件。
// extensions 是文件扩展名列表，如 []string{".md", ".mdx"}。
func FindFiles(dir string, extensions []string) ([]string, error) {
	var files []string
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.ToLower(ext)] = true
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			ext := strings.ToLower(filepath.Ext(path))
			if extMap[ext] {
				files = append(files, path)
			}
		}
		return nil
	})

	return files, err
}

// EnsureDir 确保目录存在，如果不存在则创建。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// FileExists 检查文件是否存在。
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DirExists 检查目录是否存在。
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// RemoveFiles 删除给定文件，不存在的文件会被忽略。
func RemoveFiles(paths ...string) error {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ExpandPaths 将目录展开为其中受支持的文档，普通路径原样保留。
// 目录内的文件按字典序排列，空目录返回错误。
func ExpandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !DirExists(p) {
			out = append(out, p)
			continue
		}
		files, err := FindFiles(p, SupportedExtensions)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.ErrInvalidDocument.WithMessagef("no supported documents in %s", p)
		}
		out = append(out, files...)
	}
	return out, nil
}
