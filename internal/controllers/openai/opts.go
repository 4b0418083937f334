package openai

import (
	"log/slog"
	"time"
)

// WithLogger sets a custom slog.Logger instance for the Controller struct to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithAPIKey sets the bearer key sent to the chat-completion API.
func WithAPIKey(key string) Option {
	return func(c *Controller) {
		c.apiKey = key
	}
}

// WithBaseURL overrides the API base URL, e.g. for a compatible proxy.
func WithBaseURL(url string) Option {
	return func(c *Controller) {
		c.baseURL = url
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(c *Controller) {
		c.model = model
	}
}

// WithTimeout bounds each completion request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}
