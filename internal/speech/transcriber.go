// internal/speech/transcriber.go
package speech

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// transcriptionFailed is what callers see instead of an error: the pipeline
// treats transcription output as ordinary (possibly nutrition-free) text.
const transcriptionFailed = "Не удалось распознать речь"

const defaultTimeout = 120 * time.Second

// Transcriber sends voice audio to a Whisper-compatible
// /audio/transcriptions endpoint.
type Transcriber struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	language   string
	logger     *zap.Logger
}

type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

func NewTranscriber(cfg Config, logger *zap.Logger) *Transcriber {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	language := cfg.Language
	if language == "" {
		language = "ru"
	}
	return &Transcriber{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		language:   language,
		logger:     logger,
	}
}

// Transcribe converts voice audio (Telegram sends OGG/Opus) to text. Failures
// come back as the sentinel string, never as an error.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) string {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "voice.ogg")
	if err != nil {
		t.logger.Error("failed to build transcription form", zap.Error(err))
		return transcriptionFailed
	}
	if _, err := part.Write(audio); err != nil {
		t.logger.Error("failed to write audio to form", zap.Error(err))
		return transcriptionFailed
	}
	_ = writer.WriteField("model", t.model)
	_ = writer.WriteField("language", t.language)
	if err := writer.Close(); err != nil {
		t.logger.Error("failed to finalize transcription form", zap.Error(err))
		return transcriptionFailed
	}

	url := t.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		t.logger.Error("failed to create transcription request", zap.Error(err))
		return transcriptionFailed
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("transcription request failed", zap.Error(err))
		return transcriptionFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.logger.Warn("failed to read transcription response", zap.Error(err))
		return transcriptionFailed
	}
	if resp.StatusCode != http.StatusOK {
		t.logger.Warn("transcription request rejected", zap.Int("status", resp.StatusCode))
		return transcriptionFailed
	}

	text := gjson.GetBytes(body, "text")
	if !text.Exists() || text.String() == "" {
		return transcriptionFailed
	}
	return text.String()
}
