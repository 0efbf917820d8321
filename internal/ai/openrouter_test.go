// internal/ai/openrouter_test.go
package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "key", Model: "qwen/qwen-vl-max"}, zap.NewNop())
}

func TestAnalyzeReturnsContent(t *testing.T) {
	var raw []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		raw, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"choices":[{"message":{"content":"Калории: 180-220 ккал"}}]}`))
	})

	got := client.Analyze(context.Background(), MealPrompt("омлет"), nil)
	assert.Equal(t, "Калории: 180-220 ккал", got)
	assert.Equal(t, "qwen/qwen-vl-max", gjson.GetBytes(raw, "model").String())
}

func TestAnalyzeAttachesImage(t *testing.T) {
	var raw []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	client.Analyze(context.Background(), PhotoPrompt(""), []byte{0xFF, 0xD8})

	url := gjson.GetBytes(raw, "messages.0.content.1.image_url.url").String()
	require.NotEmpty(t, url)
	assert.Contains(t, url, "data:image/jpeg;base64,")
}

func TestAnalyzeAPIErrorYieldsSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	got := client.Analyze(context.Background(), MealPrompt("суп"), nil)
	assert.Equal(t, errNoAnswer, got)
}

func TestAnalyzeTransportErrorYieldsSentinel(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on
	client := NewClient(Config{BaseURL: srv.URL, APIKey: "key"}, zap.NewNop())

	got := client.Analyze(context.Background(), MealPrompt("суп"), nil)
	assert.Equal(t, errNoLink, got)
}

func TestAnalyzeMissingContentYieldsSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"bad model"}}`))
	})

	got := client.Analyze(context.Background(), MealPrompt("суп"), nil)
	assert.Equal(t, errNoAnswer, got)
}
