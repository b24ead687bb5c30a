package biz

import (
	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
)

// State 知识库状态。
type State int

const (
	// StateEmpty 尚未入库，磁盘上没有完整的索引与元数据文件。
	StateEmpty State = iota
	// StateIndexed 已入库。
	StateIndexed
	// StateQueryable 已入库且在本进程内完成过检索。
	StateQueryable
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIndexed:
		return "indexed"
	case StateQueryable:
		return "queryable"
	default:
		return "empty"
	}
}

// MarshalText 以名称序列化。
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IngestOptions 单个文档入库参数。
type IngestOptions struct {
	// KBName 知识库名称，为空时由文件名派生。
	KBName string
	// Override 为 true 时忽略登记表，强制重建。
	Override bool
	// MaxLength 分块 token 上限，0 表示使用服务配置。
	MaxLength int
}

// IngestRequest 批量入库中的一项。
type IngestRequest struct {
	Path    string
	Options IngestOptions
}

// IngestResult 入库结果。
type IngestResult struct {
	KBName string `json:"kb_name"`
	Path   string `json:"path"`
	// Skipped 登记表中已有相同内容，未重建。
	Skipped bool `json:"skipped"`
	Pages   int  `json:"pages"`
	Chunks  int  `json:"chunks"`
	// ContentHash 文件内容的 SHA-256。
	ContentHash string `json:"content_hash"`
}

// QueryOptions 检索参数，零值字段使用服务配置。
type QueryOptions struct {
	TopK           int
	ScoreThreshold float64
}

// QueryResult 检索结果，Contents、Pages、Scores、IDs 一一对应，按相似度降序。
type QueryResult struct {
	KBName   string    `json:"kb_name"`
	Question string    `json:"question"`
	Contents []string  `json:"contents"`
	Pages    []int     `json:"pages"`
	Scores   []float32 `json:"scores"`
	IDs      []int64   `json:"ids"`
}

// Len 返回命中数量。
func (r *QueryResult) Len() int {
	return len(r.IDs)
}

// MaxScore 返回最高相似度，没有命中时返回 0。
func (r *QueryResult) MaxScore() float32 {
	if len(r.Scores) == 0 {
		return 0
	}
	// Scores 已按降序排列
	return r.Scores[0]
}

func (r *QueryResult) append(id int64, content string, page int, score float32) {
	r.IDs = append(r.IDs, id)
	r.Contents = append(r.Contents, content)
	r.Pages = append(r.Pages, page)
	r.Scores = append(r.Scores, score)
}

// Answer 问答结果。
type Answer struct {
	Answer  string       `json:"answer"`
	Prompt  string       `json:"prompt"`
	Sources *QueryResult `json:"sources"`
}

// KBStats 知识库统计。
type KBStats struct {
	KBName  string              `json:"kb_name"`
	State   State               `json:"state"`
	Vectors int                 `json:"vectors"`
	Chunks  int64               `json:"chunks"`
	Dim     int                 `json:"dim"`
	Files   []*model.FileRecord `json:"files"`
	Metrics metrics.Snapshot    `json:"metrics"`
}
