package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-kb/pkg/llm"
	"github.com/kart-io/sentinel-kb/pkg/utils/json"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/v1"
	cfg.APIKey = "sk-test"
	return NewProviderWithConfig(cfg)
}

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := llm.NewEmbeddingProvider(ProviderName, map[string]any{})
	assert.Error(t, err)

	p, err := llm.NewEmbeddingProvider(ProviderName, map[string]any{"api_key": "k", "embed_model": "bge"})
	require.NoError(t, err)
	assert.Equal(t, "openai/bge", p.Name())
}

func TestEmbed_ReordersByIndex(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	})

	vecs, err := p.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbed_MissingEntry(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0]}]}`))
	})

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"好的"},"finish_reason":"stop"}]}`))
	})

	out, err := p.Generate(context.Background(), "问题", llm.DefaultGenerateParams().WithSystemPrompt("系统"))
	require.NoError(t, err)
	assert.Equal(t, "好的", out)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "问题", got.Messages[1].Content)
	assert.Equal(t, 2048, got.MaxTokens)
	assert.InDelta(t, 0.1, got.FrequencyPenalty, 1e-9)
}

func TestGenerate_NoChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := p.Generate(context.Background(), "q", nil)
	assert.Error(t, err)
}
