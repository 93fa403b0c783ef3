package llm

import (
	"context"

	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/anthropic"
	"github.com/fidelis3/Warm-Lead-Sourcer/pkg/gemini"
)

// Completer returns a single text completion for a system instruction and a
// user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AnthropicCompleter completes with a Claude model.
type AnthropicCompleter struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
	// Phase labels usage logs.
	Phase string
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 64
	}
	temp := 0.0
	resp, err := c.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(c.Model, c.Phase)
	return resp.Text(), nil
}

// GeminiCompleter completes with a Gemini model.
type GeminiCompleter struct {
	Client    gemini.Client
	Model     string
	MaxTokens int32
}

// Complete implements Completer.
func (c *GeminiCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	var temp float32
	return c.Client.Generate(ctx, gemini.GenerateRequest{
		Model:           c.Model,
		System:          system,
		Prompt:          user,
		MaxOutputTokens: c.MaxTokens,
		Temperature:     &temp,
	})
}
