package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.1:8b"
	defaultTimeout = 30 * time.Second

	// Replies are short conversational turns wrapped in a reasoning
	// envelope; this cap keeps a rambling model from eating the window.
	defaultNumPredict = 512
)

// OllamaConfig configures the Ollama chat client.
type OllamaConfig struct {
	// BaseURL of the Ollama API (default http://localhost:11434).
	BaseURL string

	// Model name (default llama3.1:8b).
	Model string

	// Timeout for the whole HTTP exchange (default 30s). Per-attempt
	// generation deadlines are layered on top via ctx.
	Timeout time.Duration

	// NumPredict caps completion tokens (default 512).
	NumPredict int
}

// OllamaClient implements Generator against Ollama's /api/chat endpoint.
type OllamaClient struct {
	client     *http.Client
	baseURL    string
	model      string
	numPredict int
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`
	EvalCount int     `json:"eval_count"`
	Error     string  `json:"error,omitempty"`
}

// NewOllamaClient creates a chat client for an Ollama-compatible server.
func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	numPredict := cfg.NumPredict
	if numPredict <= 0 {
		numPredict = defaultNumPredict
	}

	return &OllamaClient{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		model:      model,
		numPredict: numPredict,
	}
}

// Generate sends a non-streaming chat completion request and returns the
// assistant message content.
func (c *OllamaClient) Generate(ctx context.Context, messages []Message, temperature float64) (string, error) {
	request := ollamaRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options: &ollamaOptions{
			Temperature: temperature,
			NumPredict:  c.numPredict,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	slog.Debug("Ollama chat request", "model", c.model, "messages", len(messages), "temperature", temperature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach Ollama: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response ollamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != "" {
		return "", fmt.Errorf("Ollama API error: %s", response.Error)
	}

	return response.Message.Content, nil
}

// Model returns the configured model name.
func (c *OllamaClient) Model() string {
	return c.model
}

var _ Generator = (*OllamaClient)(nil)
