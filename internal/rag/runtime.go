// Package ragsvc assembles the knowledge base service from options.
package ragsvc

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	"github.com/kart-io/version"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/sentinel-kb/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-kb/internal/rag/biz"
	"github.com/kart-io/sentinel-kb/internal/rag/metrics"
	"github.com/kart-io/sentinel-kb/internal/rag/store"
	"github.com/kart-io/sentinel-kb/pkg/component/milvus"
	"github.com/kart-io/sentinel-kb/pkg/component/redis"
	"github.com/kart-io/sentinel-kb/pkg/infra/tracing"
	"github.com/kart-io/sentinel-kb/pkg/llm"
	"github.com/kart-io/sentinel-kb/pkg/llm/resilience"
	cacheopts "github.com/kart-io/sentinel-kb/pkg/options/cache"
	kbopts "github.com/kart-io/sentinel-kb/pkg/options/kb"
	llmopts "github.com/kart-io/sentinel-kb/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-kb/pkg/options/logger"
	milvusopts "github.com/kart-io/sentinel-kb/pkg/options/milvus"
	tracingopts "github.com/kart-io/sentinel-kb/pkg/options/tracing"

	// 导入 LLM 供应商以自动注册
	_ "github.com/kart-io/sentinel-kb/pkg/llm/ollama"
	_ "github.com/kart-io/sentinel-kb/pkg/llm/openai"
)

// Name is the name of the application.
const Name = "sentinel-kb"

// Config contains application-related configurations.
type Config struct {
	LogOptions       *logopts.Options
	KBOptions        *kbopts.Options
	EmbeddingOptions *llmopts.ProviderOptions
	ChatOptions      *llmopts.ChatOptions
	CacheOptions     *cacheopts.Options
	MilvusOptions    *milvusopts.Options
	TracingOptions   *tracingopts.Options
}

// Runtime 持有知识库服务及其依赖的连接。
type Runtime struct {
	Service *biz.KBService
	Metrics *metrics.KBMetrics

	closers []func() error
}

// NewRuntime 按配置初始化日志、链路追踪、模型供应商、缓存、索引后端与文件登记表。
// 任一步骤失败时已创建的资源会被释放。
func (cfg *Config) NewRuntime(ctx context.Context) (_ *Runtime, err error) {
	if cfg.LogOptions != nil {
		if err := cfg.LogOptions.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	rt := &Runtime{Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions, version.Get().GitVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	rt.closers = append(rt.closers, func() error {
		return tp.Shutdown(context.Background())
	})

	embedder, err := cfg.newEmbedder(ctx, rt)
	if err != nil {
		return nil, err
	}
	generation, err := cfg.newGeneration()
	if err != nil {
		return nil, err
	}

	newIndex, err := cfg.newIndexFactory(rt)
	if err != nil {
		return nil, err
	}

	if err := docutil.EnsureDir(cfg.KBOptions.DataDir); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	registry, err := store.OpenFileRegistry(ctx, store.RegistryPath(cfg.KBOptions.DataDir))
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, registry.Close)

	rt.Service = biz.NewKBService(cfg.serviceConfig(), embedder, generation, registry, newIndex, biz.WithMetrics(rt.Metrics))
	// 服务先于登记表关闭
	rt.closers = append(rt.closers, rt.Service.Close)

	logger.Infow("knowledge base service initialized",
		"data_dir", cfg.KBOptions.DataDir,
		"index_backend", cfg.KBOptions.IndexBackend,
		"embedding", cfg.EmbeddingOptions.Provider+"/"+cfg.EmbeddingOptions.Model,
		"chat", cfg.ChatOptions.Provider+"/"+cfg.ChatOptions.Model,
	)
	return rt, nil
}

func (cfg *Config) serviceConfig() *biz.ServiceConfig {
	kb := cfg.KBOptions
	return &biz.ServiceConfig{
		DataDir: kb.DataDir,
		Workers: kb.Workers,
		Indexer: biz.IndexerConfig{
			MaxLength: kb.MaxLength,
			BatchSize: kb.BatchSize,
		},
		Retriever: biz.RetrieverConfig{
			TopK:           kb.TopK,
			ScoreThreshold: kb.ScoreThreshold,
		},
		Generator: biz.GeneratorConfig{
			SystemPrompt: kb.SystemPrompt,
			Params:       cfg.ChatOptions.GenerateParams(),
		},
		Summarizer: biz.SummarizerConfig{
			MaxLength: kb.SummaryMaxLength,
		},
	}
}

func retryConfig(maxRetries int) *resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	if maxRetries > 0 {
		rc.MaxAttempts = maxRetries
	}
	return rc
}

// newEmbedder 创建向量化供应商，外层依次包装重试熔断与 Redis 缓存。
func (cfg *Config) newEmbedder(ctx context.Context, rt *Runtime) (llm.EmbeddingProvider, error) {
	opts := cfg.EmbeddingOptions
	provider, err := llm.NewEmbeddingProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	var embedder llm.EmbeddingProvider = resilience.NewResilientEmbeddingProvider(provider, retryConfig(opts.MaxRetries), nil)

	if cfg.CacheOptions == nil || !cfg.CacheOptions.Enabled {
		logger.Debugw("embedding cache disabled")
		return embedder, nil
	}

	client, err := redis.New(ctx, cfg.CacheOptions.Redis)
	if err != nil {
		// 缓存只是加速手段，连接失败时降级为直连
		logger.Warnw("failed to connect to redis, embedding cache disabled", "error", err.Error())
		return embedder, nil
	}
	rt.closers = append(rt.closers, client.Close)
	logger.Infow("embedding cache initialized",
		"addr", cfg.CacheOptions.Redis.Addr(),
		"ttl", cfg.CacheOptions.TTL,
	)

	return llm.NewCachedEmbeddingProvider(embedder, client.Client(), &llm.EmbeddingCacheConfig{
		Enabled:   true,
		TTL:       cfg.CacheOptions.TTL,
		KeyPrefix: cfg.CacheOptions.KeyPrefix,
	}), nil
}

func (cfg *Config) newGeneration() (llm.GenerationProvider, error) {
	opts := cfg.ChatOptions
	provider, err := llm.NewGenerationProvider(opts.Provider, opts.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat provider: %w", err)
	}
	return resilience.NewResilientGenerationProvider(provider, retryConfig(opts.MaxRetries), nil), nil
}

func (cfg *Config) newIndexFactory(rt *Runtime) (store.IndexFactory, error) {
	if cfg.KBOptions.IndexBackend != kbopts.BackendMilvus {
		return store.NewIndexFactory(cfg.KBOptions.IndexBackend, nil)
	}

	client, err := milvus.New(cfg.MilvusOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize milvus: %w", err)
	}
	rt.closers = append(rt.closers, func() error {
		return client.Close(context.Background())
	})
	logger.Infow("milvus client initialized", "address", cfg.MilvusOptions.Address)
	return store.NewIndexFactory(store.BackendMilvus, client)
}

// Close 按创建的逆序释放资源。
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	_ = logger.Flush()
	return utilerrors.NewAggregate(errs)
}
