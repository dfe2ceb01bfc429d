package llm

import (
	"context"
	"errors"
)

var (
	ErrServiceUnavailable = errors.New("llm service unavailable")
	ErrRateLimited        = errors.New("llm rate limited")
)

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // overrides the provider's default model
	JSON        bool   // ask the backend for a JSON object response
	System      string // prepended as a system message when set
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithJSON() Option {
	return func(o *Options) {
		o.JSON = true
	}
}

func WithSystem(prompt string) Option {
	return func(o *Options) {
		o.System = prompt
	}
}

// Apply resolves opts over the defaults every provider starts from.
func Apply(opts ...Option) Options {
	o := Options{Temperature: 0.7}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LLMProvider is the contract for a text generation backend.
// Transport failures are wrapped in ErrServiceUnavailable or ErrRateLimited.
type LLMProvider interface {
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single user prompt.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
