package ollama

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-kb/pkg/llm"
	"github.com/kart-io/sentinel-kb/pkg/utils/httpclient"
	"github.com/kart-io/sentinel-kb/pkg/utils/json"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/"
	return NewProviderWithConfig(cfg)
}

func TestRegistered(t *testing.T) {
	p, err := llm.NewEmbeddingProvider(ProviderName, map[string]any{"embed_model": "m3"})
	require.NoError(t, err)
	assert.Equal(t, "ollama/m3", p.Name())

	g, err := llm.NewGenerationProvider(ProviderName, nil)
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestEmbed(t *testing.T) {
	var got embedRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"model":"bge-m3","embeddings":[[1,0],[0,1]]}`))
	})

	vecs, err := p.Embed(context.Background(), []string{"甲", "乙"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
	assert.Equal(t, "bge-m3", got.Model)
	assert.Equal(t, []string{"甲", "乙"}, got.Input)

	empty, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestEmbed_CountMismatch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	})

	_, err := p.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	var got generateRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"response":"答案","done":true}`))
	})

	params := llm.DefaultGenerateParams().WithSystemPrompt("只根据资料回答")
	out, err := p.Generate(context.Background(), "问题", params)
	require.NoError(t, err)

	assert.Equal(t, "答案", out)
	assert.Equal(t, "问题", got.Prompt)
	assert.Equal(t, "只根据资料回答", got.System)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.3, got.Options.Temperature, 1e-9)
	assert.InDelta(t, 0.85, got.Options.TopP, 1e-9)
	assert.Equal(t, 5, got.Options.TopK)
	assert.InDelta(t, 1.1, got.Options.RepeatPenalty, 1e-9)
	assert.Equal(t, 2048, got.Options.NumPredict)
}

func TestGenerate_StatusError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := p.Generate(context.Background(), "q", nil)
	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestListModels(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"bge-m3"},{"name":"qwen2.5:7b"}]}`))
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bge-m3", "qwen2.5:7b"}, models)
	assert.NoError(t, p.Ping(context.Background()))
}
