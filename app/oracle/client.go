package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("oracle returned no choices")

// Completer turns a prompt into a single text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var _ Completer = (*Client)(nil)

type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewClient(opts Options, httpClient *http.Client) *Client {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	model := opts.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}

	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: model,
		// A literal zero is dropped by omitempty and the API would fall back
		// to its default of 1.
		temperature: math.SmallestNonzeroFloat32,
		timeout:     opts.Timeout,
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	slog.Debug("Oracle responded",
		"model", resp.Model,
		"duration", time.Since(started),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}
