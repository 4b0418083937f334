// Package openai provides a chat-completion Controller used to classify free-text check-in notes.
package openai

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/pkg/errors"
	gpt "github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = gpt.GPT3Dot5Turbo

// ErrNotConfigured is returned by NewController when no API key is available.
var ErrNotConfigured = errors.New("openai API key not configured")

// Controller wraps a go-openai client and implements checkin.TextClassifier.
type Controller struct {
	logger *slog.Logger

	apiKey  string
	baseURL string
	model   string
	timeout time.Duration

	client *gpt.Client
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller. It returns ErrNotConfigured when the API key is empty.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "OpenAI")
	if _inst.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if _inst.model == "" {
		_inst.model = DefaultModel
	}
	if _inst.timeout <= 0 {
		_inst.timeout = 30 * time.Second
	}

	cfg := gpt.DefaultConfig(_inst.apiKey)
	if _inst.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(_inst.baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: _inst.timeout}
	_inst.client = gpt.NewClientWithConfig(cfg)
	return _inst, nil
}

// Model returns the configured chat model.
func (c *Controller) Model() string {
	return c.model
}

// Complete sends instruction as the system message and input as the user message,
// returning the trimmed content of the first choice.
func (c *Controller) Complete(ctx context.Context, instruction, input string) (string, error) {
	c.logger.Debug("requesting chat completion...", slog.String("model", c.model), slog.Int("inputLength", len(input)))
	resp, err := c.client.CreateChatCompletion(ctx, gpt.ChatCompletionRequest{
		Model: c.model,
		Messages: []gpt.ChatCompletionMessage{
			{Role: gpt.ChatMessageRoleSystem, Content: instruction},
			{Role: gpt.ChatMessageRoleUser, Content: input},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("chat completion received", slog.String("content", helpers.Truncate(content, 80)))
	return content, nil
}
