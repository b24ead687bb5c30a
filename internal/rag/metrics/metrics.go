// Package metrics 提供知识库入库、检索与生成的进程内计数。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// KBMetrics 知识库业务指标。
type KBMetrics struct {
	// 入库指标
	documentsIndexed atomic.Uint64
	documentsSkipped atomic.Uint64
	chunksIndexed    atomic.Uint64
	indexErrors      atomic.Uint64
	rollbacks        atomic.Uint64

	// 检索指标
	queriesTotal  atomic.Uint64
	queriesErrors atomic.Uint64
	hitsReturned  atomic.Uint64
	hitsDropped   atomic.Uint64

	// 模型调用指标
	embedCalls     atomic.Uint64
	embedErrors    atomic.Uint64
	embedTexts     atomic.Uint64
	generateCalls  atomic.Uint64
	generateErrors atomic.Uint64

	durationMu        sync.Mutex
	retrievalDuration float64
	generateDuration  float64
	startTime         time.Time
}

// Snapshot 某一时刻的指标快照。
type Snapshot struct {
	DocumentsIndexed uint64 `json:"documents_indexed"`
	DocumentsSkipped uint64 `json:"documents_skipped"`
	ChunksIndexed    uint64 `json:"chunks_indexed"`
	IndexErrors      uint64 `json:"index_errors"`
	Rollbacks        uint64 `json:"rollbacks"`

	QueriesTotal  uint64 `json:"queries_total"`
	QueriesErrors uint64 `json:"queries_errors"`
	HitsReturned  uint64 `json:"hits_returned"`
	HitsDropped   uint64 `json:"hits_dropped"`

	EmbedCalls     uint64 `json:"embed_calls"`
	EmbedErrors    uint64 `json:"embed_errors"`
	EmbedTexts     uint64 `json:"embed_texts"`
	GenerateCalls  uint64 `json:"generate_calls"`
	GenerateErrors uint64 `json:"generate_errors"`

	RetrievalSeconds float64 `json:"retrieval_seconds"`
	GenerateSeconds  float64 `json:"generate_seconds"`
	UptimeSeconds    float64 `json:"uptime_seconds"`
}

var (
	defaultMetrics *KBMetrics
	defaultOnce    sync.Once
)

// New 创建独立的指标实例。
func New() *KBMetrics {
	return &KBMetrics{startTime: time.Now()}
}

// Default 返回进程级指标实例。
func Default() *KBMetrics {
	defaultOnce.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

// RecordIngest 记录一次文档入库。skipped 表示命中登记表而跳过。
func (m *KBMetrics) RecordIngest(chunks int, skipped bool, err error) {
	switch {
	case err != nil:
		m.indexErrors.Add(1)
	case skipped:
		m.documentsSkipped.Add(1)
	default:
		m.documentsIndexed.Add(1)
		m.chunksIndexed.Add(uint64(chunks))
	}
}

// RecordRollback 记录一次元数据写入失败后的向量回滚。
func (m *KBMetrics) RecordRollback() {
	m.rollbacks.Add(1)
}

// RecordQuery 记录一次检索，dropped 为被阈值或元数据缺失过滤掉的条数。
func (m *KBMetrics) RecordQuery(duration time.Duration, hits, dropped int, err error) {
	m.queriesTotal.Add(1)
	if err != nil {
		m.queriesErrors.Add(1)
		return
	}
	m.hitsReturned.Add(uint64(hits))
	m.hitsDropped.Add(uint64(dropped))

	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordEmbed 记录一次 embedding 调用。
func (m *KBMetrics) RecordEmbed(texts int, err error) {
	m.embedCalls.Add(1)
	if err != nil {
		m.embedErrors.Add(1)
		return
	}
	m.embedTexts.Add(uint64(texts))
}

// RecordGenerate 记录一次生成调用。
func (m *KBMetrics) RecordGenerate(duration time.Duration, err error) {
	m.generateCalls.Add(1)
	if err != nil {
		m.generateErrors.Add(1)
		return
	}

	m.durationMu.Lock()
	m.generateDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// Snapshot 返回当前指标。
func (m *KBMetrics) Snapshot() Snapshot {
	m.durationMu.Lock()
	retrieval := m.retrievalDuration
	generate := m.generateDuration
	start := m.startTime
	m.durationMu.Unlock()

	return Snapshot{
		DocumentsIndexed: m.documentsIndexed.Load(),
		DocumentsSkipped: m.documentsSkipped.Load(),
		ChunksIndexed:    m.chunksIndexed.Load(),
		IndexErrors:      m.indexErrors.Load(),
		Rollbacks:        m.rollbacks.Load(),
		QueriesTotal:     m.queriesTotal.Load(),
		QueriesErrors:    m.queriesErrors.Load(),
		HitsReturned:     m.hitsReturned.Load(),
		HitsDropped:      m.hitsDropped.Load(),
		EmbedCalls:       m.embedCalls.Load(),
		EmbedErrors:      m.embedErrors.Load(),
		EmbedTexts:       m.embedTexts.Load(),
		GenerateCalls:    m.generateCalls.Load(),
		GenerateErrors:   m.generateErrors.Load(),
		RetrievalSeconds: retrieval,
		GenerateSeconds:  generate,
		UptimeSeconds:    time.Since(start).Seconds(),
	}
}

// Export 导出 Prometheus 文本格式。
func (m *KBMetrics) Export(namespace string) string {
	s := m.Snapshot()
	prefix := namespace
	if prefix == "" {
		prefix = "kb"
	}

	var sb strings.Builder
	write := func(name, typ, help string, value any) {
		fmt.Fprintf(&sb, "# HELP %s_%s %s\n", prefix, name, help)
		fmt.Fprintf(&sb, "# TYPE %s_%s %s\n", prefix, name, typ)
		switch v := value.(type) {
		case float64:
			fmt.Fprintf(&sb, "%s_%s %.6f\n\n", prefix, name, v)
		default:
			fmt.Fprintf(&sb, "%s_%s %v\n\n", prefix, name, v)
		}
	}

	write("documents_indexed_total", "counter", "Documents ingested.", s.DocumentsIndexed)
	write("documents_skipped_total", "counter", "Documents skipped because they were already ingested.", s.DocumentsSkipped)
	write("chunks_indexed_total", "counter", "Chunks written to the index.", s.ChunksIndexed)
	write("index_errors_total", "counter", "Failed ingestions.", s.IndexErrors)
	write("rollbacks_total", "counter", "Vector batches removed after a metadata write failure.", s.Rollbacks)
	write("queries_total", "counter", "Retrieval queries.", s.QueriesTotal)
	write("queries_errors_total", "counter", "Failed retrieval queries.", s.QueriesErrors)
	write("hits_returned_total", "counter", "Hits returned to callers.", s.HitsReturned)
	write("hits_dropped_total", "counter", "Hits dropped by threshold or missing metadata.", s.HitsDropped)
	write("embed_calls_total", "counter", "Embedding requests.", s.EmbedCalls)
	write("embed_errors_total", "counter", "Failed embedding requests.", s.EmbedErrors)
	write("embed_texts_total", "counter", "Texts embedded.", s.EmbedTexts)
	write("generate_calls_total", "counter", "Generation requests.", s.GenerateCalls)
	write("generate_errors_total", "counter", "Failed generation requests.", s.GenerateErrors)
	write("retrieval_duration_seconds_total", "counter", "Total retrieval duration.", s.RetrievalSeconds)
	write("generate_duration_seconds_total", "counter", "Total generation duration.", s.GenerateSeconds)
	write("uptime_seconds", "gauge", "Process uptime in seconds.", s.UptimeSeconds)

	return sb.String()
}

// Reset 重置所有指标（仅用于测试）。
func (m *KBMetrics) Reset() {
	for _, c := range []*atomic.Uint64{
		&m.documentsIndexed, &m.documentsSkipped, &m.chunksIndexed, &m.indexErrors, &m.rollbacks,
		&m.queriesTotal, &m.queriesErrors, &m.hitsReturned, &m.hitsDropped,
		&m.embedCalls, &m.embedErrors, &m.embedTexts, &m.generateCalls, &m.generateErrors,
	} {
		c.Store(0)
	}

	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.generateDuration = 0
	m.startTime = time.Now()
	m.durationMu.Unlock()
}
