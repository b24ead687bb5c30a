package biz

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/internal/rag/store"
	"github.com/kart-io/sentinel-kb/pkg/errors"
	"github.com/kart-io/sentinel-kb/pkg/llm"
)

func TestChunkDocument(t *testing.T) {
	doc := &model.Document{Pages: []model.Page{
		{PageNum: 1, PageContent: "第1章 绪论\n本章介绍研究背景与主要内容，并说明全文的组织结构。"},
		{PageNum: 2, PageContent: "研究背景部分回顾了相关工作的发展过程以及存在的不足。"},
		{PageNum: 3, PageContent: "\n\n"},
	}}

	chunks := ChunkDocument(doc, 200)
	require.Len(t, chunks, 2, "空白页不产生分块")
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, "第1章 绪论", chunks[0].Chapter)
	assert.Contains(t, chunks[0].Content, "# 第1章 绪论")
	// 章节跨页延续
	assert.Equal(t, 2, chunks[1].Page)
	assert.Equal(t, "第1章 绪论", chunks[1].Chapter)
}

func TestChunkDocumentKeepsTerminatorWithSentence(t *testing.T) {
	doc := &model.Document{Pages: []model.Page{{PageNum: 1, PageContent: "Hello world foo. Bar baz."}}}

	chunks := ChunkDocument(doc, 3)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEqual(t, ".", strings.TrimSpace(c.Content), "句末标点不应单独成块")
	}
	assert.True(t, strings.HasSuffix(strings.TrimSpace(chunks[0].Content), "foo."))
}

func TestCloseClause(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"结尾为全角逗号", "因为天气原因，", "因为天气原因……"},
		{"逗号后有空白", "因为天气原因，\n ", "因为天气原因……"},
		{"完整句子", "今天下雨了。", "今天下雨了。"},
		{"半角逗号不处理", "rain,", "rain,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, closeClause(tt.in))
		})
	}
}

func TestSummarizerSegments(t *testing.T) {
	s := NewSummarizer(nil, &SummarizerConfig{MaxLength: 5})
	segments := s.Segments([]string{"一二三四五六七八，九十", "  "})
	require.NotEmpty(t, segments)
	assert.Equal(t, "一二三四五", segments[0])
	for _, seg := range segments {
		assert.NotEmpty(t, strings.TrimSpace(seg))
	}
}

func TestBuildPrompt(t *testing.T) {
	result := &QueryResult{
		Contents: []string{"甲方负责交付。", "乙方负责验收。\n"},
		Scores:   []float32{0.8125, 0.5},
	}
	prompt := BuildPrompt("谁负责验收？", result)

	assert.Contains(t, prompt, NoCitationMarker+"甲方负责交付。\n")
	assert.Contains(t, prompt, NoCitationMarker+"乙方负责验收。\n")
	assert.Contains(t, prompt, "0.8125")
	assert.True(t, strings.HasSuffix(prompt, "问题：谁负责验收？"))

	empty := BuildPrompt("问题", &QueryResult{})
	assert.NotContains(t, empty, NoCitationMarker)
	assert.Contains(t, empty, "0.0000")
}

func TestGeneratorUsesParams(t *testing.T) {
	gen := &fakeGenerator{}
	params := &llm.GenerateParams{Temperature: 0.7, TopP: 0.9, TopK: 10, RepeatPenalty: 1.2, MaxLength: 512}
	g := NewGenerator(gen, &GeneratorConfig{SystemPrompt: "sys", Params: params}, metrics.New())

	_, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Len(t, gen.params, 1)
	assert.Equal(t, "sys", gen.params[0].SystemPrompt)
	assert.Equal(t, 0.7, gen.params[0].Temperature)
	assert.Equal(t, 512, gen.params[0].MaxLength)
	assert.Empty(t, params.SystemPrompt, "不应修改配置中的参数")
}

func TestCommitterRollback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	factory, err := store.NewIndexFactory(store.BackendFlat, nil)
	require.NoError(t, err)

	kb, err := createKB(ctx, dir, "rollback", factory)
	require.NoError(t, err)
	m := metrics.New()
	c := newCommitter(kb, m)

	rows := []*model.Chunk{{VecIndex: 0, Content: "a"}, {VecIndex: 1, Content: "b"}}
	vectors := [][]float32{{1, 0}, {0, 1}}
	require.NoError(t, c.Commit(ctx, vectors, rows))

	// 关闭元数据库使下一批写入失败
	require.NoError(t, kb.chunks.Close())
	more := []*model.Chunk{{VecIndex: 2, Content: "c"}}
	err = c.Commit(ctx, [][]float32{{1, 1}}, more)
	assert.ErrorIs(t, err, errors.ErrMetadataWrite)

	ids, err := kb.index.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1}, ids, "失败批次的向量应被删除")
	assert.Equal(t, uint64(1), m.Snapshot().Rollbacks)

	// 维度不一致时不写元数据
	err = c.Commit(ctx, [][]float32{{1, 2, 3}}, []*model.Chunk{{VecIndex: 3, Content: "d"}})
	assert.ErrorIs(t, err, errors.ErrDimensionMismatch)
	_ = kb.artifacts.Remove()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "indexed", StateIndexed.String())
	assert.Equal(t, "queryable", StateQueryable.String())
}
