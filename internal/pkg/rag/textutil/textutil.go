// Package textutil 提供知识库相关的文本与向量工具函数。
package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"unicode/utf8"
)

// Dot 计算内积，长度不一致时返回 0。
func Dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Normalize 返回 L2 归一化后的新向量。零向量原样复制返回。
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// NormalizeRows 对每一行做 L2 归一化。
func NormalizeRows(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r)
	}
	return out
}

// HashString 计算字符串的 SHA-256 哈希值（十六进制）。
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// HashBytes 计算字节序列的 SHA-256 哈希值（十六进制）。
func HashBytes(b []byte) string {
	hash := sha256.Sum256(b)
	return hex.EncodeToString(hash[:])
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// IsBlank 判断字符串是否只包含空白字符。
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
