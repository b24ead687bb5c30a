package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/kart-io/logger"
	"github.com/kart-io/sentinel-kb/pkg/llm"
	"github.com/kart-io/sentinel-kb/pkg/utils/httpclient"
)

// ResilientEmbeddingProvider 带重试和熔断的向量化供应商。
type ResilientEmbeddingProvider struct {
	provider llm.EmbeddingProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

var _ llm.EmbeddingProvider = (*ResilientEmbeddingProvider)(nil)

// NewResilientEmbeddingProvider 包装向量化供应商，配置为 nil 时使用默认值。
func NewResilientEmbeddingProvider(
	provider llm.EmbeddingProvider,
	retryConfig *RetryConfig,
	cbConfig *CircuitBreakerConfig,
) *ResilientEmbeddingProvider {
	return &ResilientEmbeddingProvider{
		provider: provider,
		retry:    completeRetry(retryConfig),
		cb:       NewCircuitBreaker(cbConfig),
	}
}

// Embed 为多个文本生成向量。
func (r *ResilientEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.Embed(ctx, texts)
		return err
	})
	return result, err
}

// EmbedSingle 为单个文本生成向量。
func (r *ResilientEmbeddingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.EmbedSingle(ctx, text)
		return err
	})
	return result, err
}

// Name 返回被包装供应商的名称。
// 嵌入缓存以名称分区，包装前后共用同一批缓存条目。
func (r *ResilientEmbeddingProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 返回熔断器实例。
func (r *ResilientEmbeddingProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

// ResilientGenerationProvider 带重试和熔断的生成供应商。
type ResilientGenerationProvider struct {
	provider llm.GenerationProvider
	retry    *RetryConfig
	cb       *CircuitBreaker
}

var _ llm.GenerationProvider = (*ResilientGenerationProvider)(nil)

// NewResilientGenerationProvider 包装生成供应商，配置为 nil 时使用默认值。
func NewResilientGenerationProvider(
	provider llm.GenerationProvider,
	retryConfig *RetryConfig,
	cbConfig *CircuitBreakerConfig,
) *ResilientGenerationProvider {
	return &ResilientGenerationProvider{
		provider: provider,
		retry:    completeRetry(retryConfig),
		cb:       NewCircuitBreaker(cbConfig),
	}
}

// Generate 根据提示生成文本。
func (r *ResilientGenerationProvider) Generate(ctx context.Context, prompt string, params *llm.GenerateParams) (string, error) {
	var result string
	err := RetryWithCircuitBreaker(ctx, r.retry, r.cb, func() error {
		var err error
		result, err = r.provider.Generate(ctx, prompt, params)
		return err
	})
	return result, err
}

// Name 返回被包装供应商的名称。
func (r *ResilientGenerationProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 返回熔断器实例。
func (r *ResilientGenerationProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}

func completeRetry(config *RetryConfig) *RetryConfig {
	if config == nil {
		return DefaultRetryConfig()
	}
	out := *config
	if out.RetryableErrors == nil {
		out.RetryableErrors = IsRetryableError
	}
	return &out
}

// IsRetryableError 判断错误是否可重试。
// 网络错误、429、408 与 5xx 响应可重试；熔断与上下文错误不可重试。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitBreakerOpen) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode >= http.StatusInternalServerError:
			logger.Debugw("provider status retryable", "status", statusErr.StatusCode)
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("network timeout, retryable", "error", err.Error())
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		logger.Debugw("network operation error, retryable", "error", err.Error())
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "EOF") || strings.Contains(msg, "connection reset") {
		logger.Debugw("connection error, retryable", "error", msg)
		return true
	}

	logger.Debugw("error not retryable", "error", msg)
	return false
}
