package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/config"
)

// Generator produces free text for a prompt. Implementations make exactly
// one outbound call per invocation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaClient calls the /api/generate endpoint of an Ollama server.
type OllamaClient struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *fiber.Client
}

// NewOllamaClient builds a client from configuration.
func NewOllamaClient(cfg config.OllamaConfig) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		client:  &fiber.Client{UserAgent: "facilities-feedback-triage"},
	}
}

// Generate sends a non-streaming generate request and returns the model text.
// Transport failures, timeouts, non-2xx statuses and undecodable bodies are
// all returned as errors.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	agent := c.client.Post(c.baseURL + "/api/generate")
	agent.JSON(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if timeout := c.deadline(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return "", fmt.Errorf("ollama generate: %w", errors.Join(errs...))
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return "", fmt.Errorf("ollama generate: unexpected status %d: %s", code, preview(body, 200))
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: decode response: %w", err)
	}
	return resp.Response, nil
}

// deadline returns the configured timeout, shortened to the context deadline
// when that comes first.
func (c *OllamaClient) deadline(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func preview(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
