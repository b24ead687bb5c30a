package llm

import (
	"context"
	"testing"
)

// mockProvider 模拟供应商实现，用于测试。
type mockProvider struct {
	name string
	dim  int
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = make([]float32, m.dim)
		for j := range result[i] {
			result[i][j] = float32(len(texts[i]) + j)
		}
	}
	return result, nil
}

func (m *mockProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockProvider) Generate(_ context.Context, prompt string, params *GenerateParams) (string, error) {
	params = Resolve(params)
	return params.SystemPrompt + "|" + prompt, nil
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test-provider", func(config map[string]any) (Provider, error) {
		name := "test-provider"
		if n, ok := config["name"].(string); ok {
			name = n
		}
		return &mockProvider{name: name, dim: 3}, nil
	})

	embedder, err := NewEmbeddingProvider("test-provider", map[string]any{"name": "custom-name"})
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if embedder.Name() != "custom-name" {
		t.Errorf("expected name 'custom-name', got '%s'", embedder.Name())
	}

	generator, err := NewGenerationProvider("test-provider", nil)
	if err != nil {
		t.Fatalf("NewGenerationProvider fallback failed: %v", err)
	}
	if generator.Name() != "test-provider" {
		t.Errorf("expected name 'test-provider', got '%s'", generator.Name())
	}
}

func TestNewProviderUnknown(t *testing.T) {
	if _, err := NewEmbeddingProvider("unknown-provider", nil); err == nil {
		t.Error("expected error for unknown embedding provider")
	}
	if _, err := NewGenerationProvider("unknown-provider", nil); err == nil {
		t.Error("expected error for unknown generation provider")
	}
}

func TestDedicatedFactoriesWin(t *testing.T) {
	RegisterProvider("split", func(map[string]any) (Provider, error) {
		return &mockProvider{name: "split-full"}, nil
	})
	RegisterEmbeddingProvider("split", func(map[string]any) (EmbeddingProvider, error) {
		return &mockProvider{name: "split-embed"}, nil
	})
	RegisterGenerationProvider("split", func(map[string]any) (GenerationProvider, error) {
		return &mockProvider{name: "split-gen"}, nil
	})

	e, err := NewEmbeddingProvider("split", nil)
	if err != nil {
		t.Fatalf("NewEmbeddingProvider failed: %v", err)
	}
	if e.Name() != "split-embed" {
		t.Errorf("expected 'split-embed', got '%s'", e.Name())
	}

	g, err := NewGenerationProvider("split", nil)
	if err != nil {
		t.Fatalf("NewGenerationProvider failed: %v", err)
	}
	if g.Name() != "split-gen" {
		t.Errorf("expected 'split-gen', got '%s'", g.Name())
	}
}

func TestListProviders(t *testing.T) {
	RegisterEmbeddingProvider("b-embed", func(map[string]any) (EmbeddingProvider, error) {
		return &mockProvider{name: "b-embed"}, nil
	})
	RegisterGenerationProvider("a-gen", func(map[string]any) (GenerationProvider, error) {
		return &mockProvider{name: "a-gen"}, nil
	})

	providers := ListProviders()
	for i := 1; i < len(providers); i++ {
		if providers[i-1] >= providers[i] {
			t.Fatalf("providers not sorted or duplicated: %v", providers)
		}
	}

	want := map[string]bool{"a-gen": false, "b-embed": false}
	for _, p := range providers {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected '%s' in provider list", name)
		}
	}
}

func TestGenerateParams(t *testing.T) {
	base := DefaultGenerateParams()
	withSystem := base.WithSystemPrompt("sys")

	if base.SystemPrompt != "" {
		t.Error("WithSystemPrompt must not modify the receiver")
	}
	if withSystem.SystemPrompt != "sys" || withSystem.TopK != 5 {
		t.Errorf("unexpected params: %+v", withSystem)
	}

	var nilParams *GenerateParams
	if got := nilParams.WithSystemPrompt("x"); got.MaxLength != 2048 || got.SystemPrompt != "x" {
		t.Errorf("nil receiver should start from defaults, got %+v", got)
	}
	if got := Resolve(nil); got.Temperature != 0.3 || got.TopP != 0.85 || got.RepeatPenalty != 1.1 {
		t.Errorf("unexpected defaults: %+v", got)
	}
	if got := Resolve(withSystem); got != withSystem {
		t.Error("Resolve should return non-nil params as-is")
	}
}
