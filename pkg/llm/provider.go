// Package llm 提供统一的模型供应商抽象层。
// 向量化与文本生成可以使用不同供应商的模型。
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// EmbeddingProvider 定义向量化供应商接口。
// 同一实例对相同输入返回相同向量，维度固定。
type EmbeddingProvider interface {
	// Embed 为多个文本生成向量。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Name 返回供应商名称。
	Name() string
}

// GenerationProvider 定义文本生成供应商接口。
type GenerationProvider interface {
	// Generate 根据提示生成文本，params 为 nil 时使用 DefaultGenerateParams。
	Generate(ctx context.Context, prompt string, params *GenerateParams) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// Provider 同时支持向量化与文本生成的供应商。
type Provider interface {
	EmbeddingProvider
	GenerationProvider
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (Provider, error)

// EmbeddingProviderFactory 向量化供应商工厂函数类型。
type EmbeddingProviderFactory func(config map[string]any) (EmbeddingProvider, error)

// GenerationProviderFactory 生成供应商工厂函数类型。
type GenerationProviderFactory func(config map[string]any) (GenerationProvider, error)

var registry = &providerRegistry{
	providers:           make(map[string]ProviderFactory),
	embeddingProviders:  make(map[string]EmbeddingProviderFactory),
	generationProviders: make(map[string]GenerationProviderFactory),
}

type providerRegistry struct {
	mu                  sync.RWMutex
	providers           map[string]ProviderFactory
	embeddingProviders  map[string]EmbeddingProviderFactory
	generationProviders map[string]GenerationProviderFactory
}

// RegisterProvider 注册完整供应商工厂。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// RegisterEmbeddingProvider 注册向量化供应商工厂。
func RegisterEmbeddingProvider(name string, factory EmbeddingProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.embeddingProviders[name] = factory
}

// RegisterGenerationProvider 注册生成供应商工厂。
func RegisterGenerationProvider(name string, factory GenerationProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.generationProviders[name] = factory
}

// NewEmbeddingProvider 根据名称创建向量化供应商。
// 优先查找专用工厂，其次查找完整供应商工厂。
func NewEmbeddingProvider(name string, config map[string]any) (EmbeddingProvider, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if factory, ok := registry.embeddingProviders[name]; ok {
		return factory(config)
	}
	if factory, ok := registry.providers[name]; ok {
		return factory(config)
	}
	return nil, fmt.Errorf("unknown embedding provider: %s", name)
}

// NewGenerationProvider 根据名称创建生成供应商。
// 优先查找专用工厂，其次查找完整供应商工厂。
func NewGenerationProvider(name string, config map[string]any) (GenerationProvider, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if factory, ok := registry.generationProviders[name]; ok {
		return factory(config)
	}
	if factory, ok := registry.providers[name]; ok {
		return factory(config)
	}
	return nil, fmt.Errorf("unknown generation provider: %s", name)
}

// ListProviders 按名称排序列出所有已注册的供应商。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	seen := make(map[string]struct{})
	for name := range registry.providers {
		seen[name] = struct{}{}
	}
	for name := range registry.embeddingProviders {
		seen[name] = struct{}{}
	}
	for name := range registry.generationProviders {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
