package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq ollamaGenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response:   "cylinder(h=10, r=3);",
			DoneReason: "stop",
			Done:       true,
		})
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL}, zerolog.Nop())
	result, err := client.Generate(context.Background(), "a cylinder", "codellama")

	require.NoError(t, err)
	assert.Equal(t, "cylinder(h=10, r=3);", result.Text)
	assert.Equal(t, "stop", result.FinishReason)

	assert.Equal(t, "/api/generate", gotPath)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "codellama", gotReq.Model)
	assert.Equal(t, "a cylinder", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
}

func TestOllamaBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sekret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "cube(1);"})
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, APIKey: "sekret"}, zerolog.Nop())
	_, err := client.Generate(context.Background(), "a cube", "codellama")
	require.NoError(t, err)
}

func TestOllamaUnreachableHostInError(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{BaseURL: "http://127.0.0.1:1"}, zerolog.Nop())
	_, err := client.Generate(context.Background(), "a cube", "codellama")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Contains(t, backendErr.Message, "http://127.0.0.1:1")
}

func TestOllamaNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "model 'nope' not found"}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL}, zerolog.Nop())
	_, err := client.Generate(context.Background(), "a cube", "nope")

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusNotFound, backendErr.Status)
	assert.Contains(t, backendErr.Message, "not found")
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models": [{"name": "codellama:latest"}, {"name": "llama3:8b"}]}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL}, zerolog.Nop())
	models, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"codellama:latest", "llama3:8b"}, models)
}

func TestOllamaDefaults(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{}, zerolog.Nop())
	assert.Equal(t, "http://127.0.0.1:11434", client.BaseURL())
	assert.Equal(t, "codellama", client.DefaultModel())
}
