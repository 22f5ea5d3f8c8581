package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is one chat turn sent to the completion endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNoAPIKey means the completion endpoint is not configured at all.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY не задан")

// Client talks to an OpenAI-compatible chat-completion endpoint. One client
// serves both personas and both demo and full mode; callers only vary the
// message list and the total timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	referer    string
	title      string
}

func NewClient(baseURL, apiKey, model, referer, title string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		referer: referer,
		title:   title,
	}
}

func (c *Client) Model() string   { return c.model }
func (c *Client) BaseURL() string { return c.baseURL }
func (c *Client) HasKey() bool    { return c.apiKey != "" }

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts the message list and returns the reply text. Transient
// upstream failures (429/5xx) are retried twice with a linearly growing
// pause; any other non-200 status comes back as an error carrying a short
// body snippet. Context cancellation is returned as-is so shutdown
// propagates cleanly through in-flight calls.
func (c *Client) Complete(ctx context.Context, msgs []Message, totalTimeout time.Duration) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, err := json.Marshal(completionRequest{Model: c.model, Messages: msgs, Temperature: 0.2})
	if err != nil {
		return "", err
	}
	url := c.baseURL + "/chat/completions"

	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	var lastStatus int
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			pause := retryPause(attempt)
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		status, text, err := c.post(ctx, url, body)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("ai request failed")
			lastStatus = 0
			continue
		}
		log.Info().Int("status", status).Int("attempt", attempt).Str("body", snippet(text, 300)).Msg("ai response")

		if status == http.StatusOK {
			return parseReply(text), nil
		}
		lastStatus = status
		if status == http.StatusTooManyRequests || status >= 500 {
			continue
		}
		return "", fmt.Errorf("ошибка ИИ: %d %s", status, snippet(text, 200))
	}
	if lastStatus != 0 {
		return "", fmt.Errorf("ошибка ИИ: %d (после повторов)", lastStatus)
	}
	return "", fmt.Errorf("таймаут ИИ, попробуйте ещё раз")
}

// retryPause grows linearly: 0.5s before the second attempt, 2.0s before
// the third.
func retryPause(attempt int) time.Duration {
	return time.Duration((float64(attempt-1)*1.5 + 0.5) * float64(time.Second))
}

func (c *Client) post(ctx context.Context, url string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(data), nil
}

// parseReply extracts the first choice, falling back to a loose map walk
// when the strict shape does not match, and maps an empty completion to a
// placeholder instead of returning "".
func parseReply(text string) string {
	var parsed completionResponse
	if err := json.Unmarshal([]byte(text), &parsed); err == nil && len(parsed.Choices) > 0 {
		if content := parsed.Choices[0].Message.Content; content != "" {
			return content
		}
	}
	var loose map[string]any
	if err := json.Unmarshal([]byte(text), &loose); err == nil {
		if choices, ok := loose["choices"].([]any); ok && len(choices) > 0 {
			if choice, ok := choices[0].(map[string]any); ok {
				if msg, ok := choice["message"].(map[string]any); ok {
					if content, ok := msg["content"].(string); ok && content != "" {
						return content
					}
				}
			}
		}
	}
	return "⚠️ Пустой ответ модели."
}

// Ping fires a minimal request and returns the raw status and body snippet,
// used by the admin diagnostics command.
func (c *Client) Ping(ctx context.Context) (int, string, error) {
	if c.apiKey == "" {
		return 0, "", ErrNoAPIKey
	}
	body, _ := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: RoleSystem, Content: "ping"},
			{Role: RoleUser, Content: "ping"},
		},
	})
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	status, text, err := c.post(ctx, c.baseURL+"/chat/completions", body)
	return status, snippet(text, 800), err
}

func snippet(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
