package biz

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/internal/rag/store"
	"github.com/kart-io/sentinel-kb/pkg/llm"
)

var prosePages = []string{
	"机器学习是人工智能的一个重要分支。它研究计算机如何从数据中自动学习规律，并利用这些规律对未知数据做出预测。",
	"监督学习使用带标签的样本训练模型。常见的任务包括分类和回归，例如判断邮件是否为垃圾邮件，或者预测房屋的价格。",
	"无监督学习不依赖标签。聚类算法会把相似的样本归为一组，降维方法则把高维数据压缩到更容易观察的低维空间。",
}

// fakeLoader 返回固定页面的加载器。
type fakeLoader struct {
	pages   []string
	loadErr error
	path    string
}

func (l *fakeLoader) Load(path string) error {
	if l.loadErr != nil {
		return l.loadErr
	}
	l.path = path
	return nil
}

func (l *fakeLoader) Extract() (*model.Document, error) {
	doc := &model.Document{SourcePath: l.path, Type: model.DocTypePDF}
	for i, p := range l.pages {
		doc.Pages = append(doc.Pages, model.Page{PageNum: i + 1, PageContent: p})
	}
	return doc, nil
}

func (l *fakeLoader) Unload() {}

func loaderOf(pages ...string) LoaderFunc {
	return func(string) (docutil.Loader, error) {
		return &fakeLoader{pages: pages}, nil
	}
}

const fakeDim = 32

// fakeEmbedder 按字符分桶计数后归一化，相同文本得到相同向量。
type fakeEmbedder struct {
	calls atomic.Int32
	err   error
}

func (e *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, fakeDim)
	for _, r := range text {
		v[int(r)%fakeDim]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		n := float32(math.Sqrt(norm))
		for i := range v {
			v[i] /= n
		}
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (e *fakeEmbedder) Name() string { return "fake-embedder" }

// fakeGenerator 记录每次调用的提示与参数。
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	params  []*llm.GenerateParams
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, params *llm.GenerateParams) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	g.prompts = append(g.prompts, prompt)
	g.params = append(g.params, params)
	return "summary-" + string(rune('A'+len(g.prompts)-1)), nil
}

func (g *fakeGenerator) Name() string { return "fake-generator" }

type testEnv struct {
	svc      *KBService
	dir      string
	embedder *fakeEmbedder
	gen      *fakeGenerator
	registry *store.FileRegistry
	metrics  *metrics.KBMetrics
}

func testConfig(dir string) *ServiceConfig {
	return &ServiceConfig{
		DataDir:    dir,
		Workers:    2,
		Indexer:    IndexerConfig{MaxLength: 200, BatchSize: 2},
		Retriever:  RetrieverConfig{TopK: 3},
		Generator:  GeneratorConfig{SystemPrompt: "system"},
		Summarizer: SummarizerConfig{MaxLength: 1500},
	}
}

func newTestEnv(t *testing.T, loader LoaderFunc, mutate ...func(*ServiceConfig)) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	registry, err := store.OpenFileRegistry(ctx, store.RegistryPath(dir))
	require.NoError(t, err)

	cfg := testConfig(dir)
	for _, fn := range mutate {
		fn(cfg)
	}
	factory, err := store.NewIndexFactory(store.BackendFlat, nil)
	require.NoError(t, err)

	env := &testEnv{
		dir:      dir,
		embedder: &fakeEmbedder{},
		gen:      &fakeGenerator{},
		registry: registry,
		metrics:  metrics.New(),
	}
	env.svc = NewKBService(cfg, env.embedder, env.gen, registry, factory,
		WithLoader(loader), WithMetrics(env.metrics))

	t.Cleanup(func() {
		_ = env.svc.Close()
		_ = registry.Close()
	})
	return env
}

// writeSource 在临时目录写入源文件，内容决定登记表中的哈希。
func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
