// internal/speech/transcriber_test.go
package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTranscriber(t *testing.T, handler http.HandlerFunc) *Transcriber {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTranscriber(Config{BaseURL: srv.URL, Model: "whisper-1"}, zap.NewNop())
}

func TestTranscribe(t *testing.T) {
	tr := newTestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "ru", r.FormValue("language"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		w.Write([]byte(`{"text":"омлет из двух яиц"}`))
	})

	got := tr.Transcribe(context.Background(), []byte("ogg-bytes"))
	assert.Equal(t, "омлет из двух яиц", got)
}

func TestTranscribeFailureYieldsSentinel(t *testing.T) {
	tr := newTestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	got := tr.Transcribe(context.Background(), []byte("ogg-bytes"))
	assert.Equal(t, transcriptionFailed, got)
}

func TestTranscribeEmptyTextYieldsSentinel(t *testing.T) {
	tr := newTestTranscriber(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	})

	got := tr.Transcribe(context.Background(), []byte("ogg-bytes"))
	assert.Equal(t, transcriptionFailed, got)
}
