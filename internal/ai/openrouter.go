// internal/ai/openrouter.go
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Failure sentinels. Callers treat analysis output as ordinary text, so a
// failed call degrades to a visible error string instead of an error value;
// the nutrition parser extracts zero nutrients from it.
const (
	errNoAnswer = "[Ошибка] Не удалось проанализировать еду."
	errNoLink   = "[Ошибка] Нет связи с AI."
)

const defaultTimeout = 60 * time.Second

// Client calls an OpenRouter-compatible chat-completions endpoint, optionally
// attaching a JPEG image as a base64 data URL for vision models.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger,
	}
}

// Analyze sends the prompt (plus the optional image) to the model and returns
// the answer text. It never returns an error: transport or API failures come
// back as bracketed sentinel strings that flow through the pipeline as
// nutrition-free text.
func (c *Client) Analyze(ctx context.Context, prompt string, imageJPEG []byte) string {
	content := []map[string]any{
		{"type": "text", "text": prompt},
	}
	if len(imageJPEG) > 0 {
		encoded := base64.StdEncoding.EncodeToString(imageJPEG)
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": "data:image/jpeg;base64," + encoded},
		})
	}

	requestData := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		c.logger.Error("failed to marshal completion request", zap.Error(err))
		return errNoLink
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.Error("failed to create completion request", zap.Error(err))
		return errNoLink
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("completion request failed", zap.Error(err))
		return errNoLink
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read completion response", zap.Error(err))
		return errNoLink
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 512)))
		return errNoAnswer
	}

	answer := gjson.GetBytes(body, "choices.0.message.content")
	if !answer.Exists() {
		c.logger.Warn("completion response missing content",
			zap.ByteString("body", truncate(body, 512)))
		return errNoAnswer
	}
	return answer.String()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// Prompts the controller feeds through Analyze.

// MealPrompt asks what was eaten and how much of each nutrient it carries.
func MealPrompt(description string) string {
	return fmt.Sprintf("Что съел пользователь и сколько калорий и БЖУ? '%s'", description)
}

// PhotoPrompt asks for a description of the food on an attached photo,
// passing the user's caption along when one was given.
func PhotoPrompt(caption string) string {
	prompt := "Опиши продукты на фото. Рассчитай суммарные калории и БЖУ."
	if caption != "" {
		prompt += fmt.Sprintf(" Подпись пользователя: '%s'", caption)
	}
	return prompt
}

// SupplementPrompt asks for the composition of a named supplement.
func SupplementPrompt(name string) string {
	return fmt.Sprintf("Опиши состав этого бада: '%s'. Сколько калорий, белков, жиров, углеводов?", name)
}
