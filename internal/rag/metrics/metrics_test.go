package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	// 进程级实例应为单例
	assert.Same(t, Default(), Default(), "应该返回同一个单例实例")
}

func TestRecordIngest(t *testing.T) {
	m := New()

	m.RecordIngest(12, false, nil)
	m.RecordIngest(0, true, nil)
	m.RecordIngest(0, false, assert.AnError)
	m.RecordRollback()

	s := m.Snapshot()
	assert.Equal(t, uint64(1), s.DocumentsIndexed)
	assert.Equal(t, uint64(1), s.DocumentsSkipped)
	assert.Equal(t, uint64(12), s.ChunksIndexed)
	assert.Equal(t, uint64(1), s.IndexErrors)
	assert.Equal(t, uint64(1), s.Rollbacks)
}

func TestRecordQuery(t *testing.T) {
	m := New()

	m.RecordQuery(100*time.Millisecond, 3, 1, nil)
	m.RecordQuery(time.Second, 0, 0, assert.AnError)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.QueriesTotal)
	assert.Equal(t, uint64(1), s.QueriesErrors)
	assert.Equal(t, uint64(3), s.HitsReturned)
	assert.Equal(t, uint64(1), s.HitsDropped)
	// 失败的查询不计入耗时
	assert.InDelta(t, 0.1, s.RetrievalSeconds, 1e-9)
}

func TestRecordModelCalls(t *testing.T) {
	m := New()

	m.RecordEmbed(32, nil)
	m.RecordEmbed(8, assert.AnError)
	m.RecordGenerate(2*time.Second, nil)
	m.RecordGenerate(time.Second, assert.AnError)

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.EmbedCalls)
	assert.Equal(t, uint64(1), s.EmbedErrors)
	assert.Equal(t, uint64(32), s.EmbedTexts)
	assert.Equal(t, uint64(2), s.GenerateCalls)
	assert.Equal(t, uint64(1), s.GenerateErrors)
	assert.InDelta(t, 2.0, s.GenerateSeconds, 1e-9)
}

func TestExport(t *testing.T) {
	m := New()
	m.RecordIngest(5, false, nil)
	m.RecordQuery(50*time.Millisecond, 2, 0, nil)

	out := m.Export("sentinel_kb")
	assert.Contains(t, out, "# TYPE sentinel_kb_chunks_indexed_total counter")
	assert.Contains(t, out, "sentinel_kb_chunks_indexed_total 5\n")
	assert.Contains(t, out, "sentinel_kb_queries_total 1\n")
	assert.Contains(t, out, "sentinel_kb_retrieval_duration_seconds_total 0.050000\n")

	// 未指定命名空间时使用默认前缀
	assert.True(t, strings.HasPrefix(New().Export(""), "# HELP kb_"))
}

func TestReset(t *testing.T) {
	m := New()
	m.RecordIngest(5, false, nil)
	m.RecordGenerate(time.Second, nil)
	m.Reset()

	s := m.Snapshot()
	assert.Zero(t, s.DocumentsIndexed)
	assert.Zero(t, s.ChunksIndexed)
	assert.Zero(t, s.GenerateCalls)
	assert.Zero(t, s.GenerateSeconds)
}

func TestConcurrentRecording(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordQuery(time.Millisecond, 1, 0, nil)
			m.RecordEmbed(1, nil)
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	assert.Equal(t, uint64(50), s.QueriesTotal)
	assert.Equal(t, uint64(50), s.HitsReturned)
	assert.Equal(t, uint64(50), s.EmbedTexts)
}
