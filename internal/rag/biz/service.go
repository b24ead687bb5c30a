package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-kb/internal/pkg/rag/textutil"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/internal/rag/store"
	"github.com/kart-io/sentinel-kb/pkg/errors"
	"github.com/kart-io/sentinel-kb/pkg/infra/pool"
	"github.com/kart-io/sentinel-kb/pkg/infra/tracing"
	"github.com/kart-io/sentinel-kb/pkg/llm"
)

const tracerName = "github.com/kart-io/sentinel-kb/internal/rag/biz"

// Service 定义知识库服务接口。
type Service interface {
	// Ingest 将一个文档写入知识库，已有同名知识库会被重建。
	Ingest(ctx context.Context, path string, opts *IngestOptions) (*IngestResult, error)
	// IngestAll 并发写入多个互不相同的知识库，results[i] 对应 reqs[i]，失败项为 nil。
	IngestAll(ctx context.Context, reqs []IngestRequest) ([]*IngestResult, error)
	// Query 检索与问题最相似的分块。
	Query(ctx context.Context, kb, question string, opts *QueryOptions) (*QueryResult, error)
	// Answer 检索后生成回答。
	Answer(ctx context.Context, kb, question string, opts *QueryOptions) (*Answer, error)
	// Summarize 分段摘要整个知识库。
	Summarize(ctx context.Context, kb string) ([]string, error)
	// DeleteFile 删除文件及其知识库，返回删除的登记记录数。
	DeleteFile(ctx context.Context, filename string) (int, error)
	// Reset 删除知识库的全部文件。
	Reset(ctx context.Context, kb string) error
	// Files 返回登记表中的文件。
	Files(ctx context.Context) ([]*model.FileRecord, error)
	// Stats 返回知识库统计。
	Stats(ctx context.Context, kb string) (*KBStats, error)
	// Close 关闭已打开的知识库。
	Close() error
}

// LoaderFunc 按路径创建文档加载器。
type LoaderFunc func(path string) (docutil.Loader, error)

// ServiceConfig 知识库服务配置。
type ServiceConfig struct {
	// DataDir 知识库文件目录。
	DataDir string
	// Workers 批量入库并发数。
	Workers int

	Indexer    IndexerConfig
	Retriever  RetrieverConfig
	Generator  GeneratorConfig
	Summarizer SummarizerConfig
}

// Option 服务可选项。
type Option func(*KBService)

// WithLoader 替换文档加载器。
func WithLoader(fn LoaderFunc) Option {
	return func(s *KBService) { s.newLoader = fn }
}

// WithMetrics 使用独立的指标实例。
func WithMetrics(m *metrics.KBMetrics) Option {
	return func(s *KBService) { s.metrics = m }
}

// KBService 组合 Indexer、Retriever、Generator、Summarizer 提供完整的知识库服务。
type KBService struct {
	config    *ServiceConfig
	registry  *store.FileRegistry
	newIndex  store.IndexFactory
	newLoader LoaderFunc
	metrics   *metrics.KBMetrics

	indexer    *Indexer
	retriever  *Retriever
	generator  *Generator
	summarizer *Summarizer

	locks sync.Map // kb name -> *sync.RWMutex

	mu     sync.Mutex
	opened map[string]*knowledgeBase
	states map[string]State
}

var _ Service = (*KBService)(nil)

// NewKBService 创建知识库服务实例。
func NewKBService(
	config *ServiceConfig,
	embedder llm.EmbeddingProvider,
	generation llm.GenerationProvider,
	registry *store.FileRegistry,
	newIndex store.IndexFactory,
	opts ...Option,
) *KBService {
	s := &KBService{
		config:    config,
		registry:  registry,
		newIndex:  newIndex,
		newLoader: docutil.NewLoader,
		metrics:   metrics.Default(),
		opened:    make(map[string]*knowledgeBase),
		states:    make(map[string]State),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.indexer = NewIndexer(embedder, &config.Indexer, s.metrics)
	s.retriever = NewRetriever(embedder, &config.Retriever, s.metrics)
	s.generator = NewGenerator(generation, &config.Generator, s.metrics)
	s.summarizer = NewSummarizer(s.generator, &config.Summarizer)
	return s
}

func (s *KBService) lock(name string) *sync.RWMutex {
	v, _ := s.locks.LoadOrStore(name, &sync.RWMutex{})
	return v.(*sync.RWMutex)
}

// acquire 返回已打开的知识库，必要时从磁盘挂载。调用方需持有该名称的锁。
func (s *KBService) acquire(ctx context.Context, name string) (*knowledgeBase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kb, ok := s.opened[name]; ok {
		return kb, nil
	}
	kb, err := openKB(ctx, s.config.DataDir, name, s.newIndex)
	if err != nil {
		return nil, err
	}
	s.opened[name] = kb
	if _, ok := s.states[name]; !ok {
		s.states[name] = StateIndexed
	}
	return kb, nil
}

// evict 关闭并移出缓存，返回被移出的知识库。
func (s *KBService) evict(name string) *knowledgeBase {
	s.mu.Lock()
	defer s.mu.Unlock()

	kb, ok := s.opened[name]
	if !ok {
		return nil
	}
	delete(s.opened, name)
	delete(s.states, name)
	if err := kb.Close(); err != nil {
		logger.Warnw("close knowledge base failed", "kb", name, "error", err.Error())
	}
	return kb
}

func (s *KBService) setState(name string, state State) {
	s.mu.Lock()
	s.states[name] = state
	s.mu.Unlock()
}

// State 返回知识库状态。
func (s *KBService) State(name string) State {
	if !store.ArtifactsFor(s.config.DataDir, name).Exist() {
		return StateEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[name]; ok {
		return st
	}
	return StateIndexed
}

// Ingest 将一个文档写入知识库。
// 未设置 Override 时，登记表中同一知识库已有相同内容且文件齐全则直接跳过。
func (s *KBService) Ingest(ctx context.Context, path string, opts *IngestOptions) (_ *IngestResult, err error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	name := opts.KBName
	if name == "" {
		name = store.DefaultKBName(path)
	}
	ctx, span := tracing.StartSpan(ctx, tracerName, "kb.ingest",
		attribute.String("kb.name", name), attribute.Bool("kb.override", opts.Override))
	defer func() { tracing.EndSpan(span, err) }()
	if err := store.ValidateKBName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrInvalidDocument.WithCause(err)
	}
	result := &IngestResult{KBName: name, Path: path, ContentHash: textutil.HashBytes(data)}

	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	if !opts.Override {
		known, err := s.alreadyIngested(ctx, name, result.ContentHash)
		if err != nil {
			return nil, err
		}
		if known {
			result.Skipped = true
			span.SetAttributes(attribute.Bool("kb.skipped", true))
			s.metrics.RecordIngest(0, true, nil)
			logger.Infow("document already ingested, skipped", "kb", name, "path", path)
			return result, nil
		}
	}

	doc, err := s.load(path)
	if err != nil {
		s.metrics.RecordIngest(0, false, err)
		return nil, err
	}
	result.Pages = doc.PageCount()

	chunks, err := s.rebuild(ctx, name, doc, opts.MaxLength)
	if err != nil {
		s.metrics.RecordIngest(0, false, err)
		return nil, err
	}
	result.Chunks = chunks

	if err := s.register(ctx, name, path, result.ContentHash, int64(len(data))); err != nil {
		s.metrics.RecordIngest(0, false, err)
		if kb := s.evict(name); kb != nil {
			_ = kb.destroy(context.WithoutCancel(ctx))
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int("kb.pages", result.Pages), attribute.Int("kb.chunks", chunks))
	s.metrics.RecordIngest(chunks, false, nil)
	logger.Infow("document ingested", "kb", name, "path", path, "pages", result.Pages, "chunks", chunks)
	return result, nil
}

func (s *KBService) alreadyIngested(ctx context.Context, name, hash string) (bool, error) {
	records, err := s.registry.SearchByHash(ctx, hash)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.KBName == name {
			return store.ArtifactsFor(s.config.DataDir, name).Exist(), nil
		}
	}
	return false, nil
}

func (s *KBService) load(path string) (*model.Document, error) {
	loader, err := s.newLoader(path)
	if err != nil {
		return nil, err
	}
	if err := loader.Load(path); err != nil {
		return nil, asInvalidDocument(err)
	}
	defer loader.Unload()

	doc, err := loader.Extract()
	if err != nil {
		return nil, asInvalidDocument(err)
	}
	return doc, nil
}

func asInvalidDocument(err error) error {
	var e *errors.Errno
	if errors.As(err, &e) {
		return err
	}
	return errors.ErrInvalidDocument.WithCause(err)
}

// rebuild 删除并重建知识库后写入文档，任何失败都会删除新建的文件。
func (s *KBService) rebuild(ctx context.Context, name string, doc *model.Document, maxLength int) (int, error) {
	s.evict(name)

	kb, err := createKB(ctx, s.config.DataDir, name, s.newIndex)
	if err != nil {
		return 0, err
	}

	chunks, err := s.indexer.Index(ctx, kb, doc, maxLength)
	if err != nil {
		if derr := kb.destroy(context.WithoutCancel(ctx)); derr != nil {
			logger.Warnw("remove partial knowledge base failed", "kb", name, "error", derr.Error())
		}
		logger.Warnw("ingestion failed, knowledge base removed", "kb", name, "error", err.Error())
		return 0, err
	}

	s.mu.Lock()
	s.opened[name] = kb
	s.states[name] = StateIndexed
	s.mu.Unlock()
	return chunks, nil
}

// register 知识库重建后只包含本文件，旧记录全部软删除。
func (s *KBService) register(ctx context.Context, name, path, hash string, size int64) error {
	if _, err := s.registry.DeleteByKB(ctx, name); err != nil {
		return err
	}
	return s.registry.Add(ctx, &model.FileRecord{
		KBName:      name,
		Filename:    filepath.Base(path),
		ContentHash: hash,
		Size:        size,
	})
}

// IngestAll 使用协程池并发入库，知识库名称重复时不做任何写入。
func (s *KBService) IngestAll(ctx context.Context, reqs []IngestRequest) ([]*IngestResult, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	reqs = slices.Clone(reqs)
	seen := make(map[string]string, len(reqs))
	for i := range reqs {
		if reqs[i].Options.KBName == "" {
			reqs[i].Options.KBName = store.DefaultKBName(reqs[i].Path)
		}
		name := reqs[i].Options.KBName
		if prev, ok := seen[name]; ok {
			return nil, errors.ErrDuplicateKnowledgeBase.WithMessagef("%s and %s both target knowledge base %q", prev, reqs[i].Path, name)
		}
		seen[name] = reqs[i].Path
	}

	workers := s.config.Workers
	if workers <= 0 || workers > len(reqs) {
		workers = len(reqs)
	}
	p, err := pool.NewPool("kb-ingest", pool.DefaultConfig(workers))
	if err != nil {
		return nil, err
	}
	defer p.Release()

	results := make([]*IngestResult, len(reqs))
	tasks := make([]func(context.Context) error, len(reqs))
	for i, req := range reqs {
		tasks[i] = func(ctx context.Context) error {
			res, err := s.Ingest(ctx, req.Path, &req.Options)
			results[i] = res
			return err
		}
	}

	var failed []error
	for i, err := range p.Run(ctx, tasks) {
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", reqs[i].Path, err))
		}
	}
	logger.Infow("batch ingestion finished", "total", len(reqs), "failed", len(failed))
	return results, utilerrors.NewAggregate(failed)
}

// Query 检索与问题最相似的分块。
func (s *KBService) Query(ctx context.Context, name, question string, opts *QueryOptions) (_ *QueryResult, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "kb.query", attribute.String("kb.name", name))
	defer func() { tracing.EndSpan(span, err) }()

	if strings.TrimSpace(question) == "" {
		return nil, errors.ErrInvalidArgument.WithMessage("question is empty")
	}
	if err := store.ValidateKBName(name); err != nil {
		return nil, err
	}

	mu := s.lock(name)
	mu.RLock()
	defer mu.RUnlock()

	kb, err := s.acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	result, err := s.retriever.Retrieve(ctx, kb, question, opts)
	if err != nil {
		return nil, err
	}
	s.setState(name, StateQueryable)
	span.SetAttributes(attribute.Int("kb.hits", len(result.IDs)))
	return result, nil
}

// Answer 检索后生成回答。
func (s *KBService) Answer(ctx context.Context, name, question string, opts *QueryOptions) (_ *Answer, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "kb.answer", attribute.String("kb.name", name))
	defer func() { tracing.EndSpan(span, err) }()

	result, err := s.Query(ctx, name, question, opts)
	if err != nil {
		return nil, err
	}
	return s.generator.Answer(ctx, question, result)
}

// Summarize 分段摘要整个知识库，不经过向量检索。
func (s *KBService) Summarize(ctx context.Context, name string) (_ []string, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "kb.summarize", attribute.String("kb.name", name))
	defer func() { tracing.EndSpan(span, err) }()

	if err := store.ValidateKBName(name); err != nil {
		return nil, err
	}

	mu := s.lock(name)
	mu.RLock()
	kb, err := s.acquire(ctx, name)
	if err != nil {
		mu.RUnlock()
		return nil, err
	}
	contents, err := kb.chunks.GetAllContents(ctx)
	mu.RUnlock()
	if err != nil {
		return nil, err
	}

	summaries, err := s.summarizer.Summarize(ctx, contents)
	if err != nil {
		return nil, err
	}
	logger.Infow("knowledge base summarized", "kb", name, "chunks", len(contents), "segments", len(summaries))
	return summaries, nil
}

// remove 删除知识库文件，milvus 后端同时删除集合。调用方需持有写锁。
func (s *KBService) remove(ctx context.Context, name string) error {
	kb := s.evict(name)
	if kb == nil && store.ArtifactsFor(s.config.DataDir, name).Exist() {
		var err error
		kb, err = openKB(ctx, s.config.DataDir, name, s.newIndex)
		if err != nil {
			logger.Warnw("open knowledge base for removal failed", "kb", name, "error", err.Error())
		}
	}
	if kb != nil {
		return kb.destroy(ctx)
	}
	return store.ArtifactsFor(s.config.DataDir, name).Remove()
}

// DeleteFile 删除文件对应的知识库并软删除登记记录。
func (s *KBService) DeleteFile(ctx context.Context, filename string) (int, error) {
	filename = filepath.Base(filename)
	records, err := s.registry.SearchByName(ctx, filename)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, errors.ErrFileNotFound.WithMessagef("file %q is not registered", filename)
	}

	done := make(map[string]bool)
	for _, rec := range records {
		if done[rec.KBName] {
			continue
		}
		done[rec.KBName] = true

		mu := s.lock(rec.KBName)
		mu.Lock()
		err := s.remove(ctx, rec.KBName)
		mu.Unlock()
		if err != nil {
			return 0, err
		}
	}

	n, err := s.registry.DeleteByName(ctx, filename)
	if err != nil {
		return 0, err
	}
	logger.Infow("file deleted", "filename", filename, "records", n)
	return int(n), nil
}

// Reset 删除知识库的全部文件与登记记录。
func (s *KBService) Reset(ctx context.Context, name string) error {
	if err := store.ValidateKBName(name); err != nil {
		return err
	}

	mu := s.lock(name)
	mu.Lock()
	defer mu.Unlock()

	existed := store.ArtifactsFor(s.config.DataDir, name).Exist()
	if err := s.remove(ctx, name); err != nil {
		return err
	}
	n, err := s.registry.DeleteByKB(ctx, name)
	if err != nil {
		return err
	}
	if !existed && n == 0 {
		return errors.ErrKnowledgeBaseNotFound.WithMessagef("knowledge base %q not found", name)
	}
	logger.Infow("knowledge base reset", "kb", name)
	return nil
}

// Files 返回登记表中的文件。
func (s *KBService) Files(ctx context.Context) ([]*model.FileRecord, error) {
	return s.registry.List(ctx)
}

// Stats 返回知识库统计，知识库不存在时状态为 StateEmpty。
func (s *KBService) Stats(ctx context.Context, name string) (*KBStats, error) {
	if err := store.ValidateKBName(name); err != nil {
		return nil, err
	}

	files, err := s.registry.SearchByKB(ctx, name)
	if err != nil {
		return nil, err
	}
	stats := &KBStats{KBName: name, Files: files, Metrics: s.metrics.Snapshot()}

	mu := s.lock(name)
	mu.RLock()
	defer mu.RUnlock()

	stats.State = s.State(name)
	if stats.State == StateEmpty {
		return stats, nil
	}

	kb, err := s.acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	if stats.Vectors, err = kb.index.Len(ctx); err != nil {
		return nil, err
	}
	if stats.Chunks, err = kb.chunks.Count(ctx); err != nil {
		return nil, err
	}
	stats.Dim = kb.index.Dim()
	return stats, nil
}

// Close 关闭所有已打开的知识库。
func (s *KBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for name, kb := range s.opened {
		if err := kb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(s.opened, name)
	}
	return utilerrors.NewAggregate(errs)
}
