// Package genai holds the text generation clients used to write and rewrite content.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrGenerationTimeout = errors.New("GENERATION_TIMEOUT")
	ErrGenerationFailed  = errors.New("GENERATION_FAILED")
	ErrEmptyResponse     = errors.New("model returned no text")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-1.5-flash"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
	MaxTokens   int
}

// NewGenerator builds the client for cfg.Provider.
func NewGenerator(cfg Config) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("genai api key is required")
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGeminiClient(cfg), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported genai provider %q", cfg.Provider)
	}
}

// cleanResponse trims model output and rejects empty text.
func cleanResponse(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	}
	return text, nil
}
