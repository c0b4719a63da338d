// Package rewrite produces a paraphrase of generated content, first through the
// generative model and, when that returns the text unchanged, through local
// synonym substitution.
package rewrite

import (
	"context"
	"errors"
	"strings"

	"ghostwriter-workers/internal/common/genai"
	"ghostwriter-workers/internal/regeneration"
)

const (
	StrategyRemote = "remote"
	StrategyLocal  = "local"
)

type Rewriter interface {
	Rewrite(ctx context.Context, instruction, text string) (string, error)
}

// GeneratorRewriter sends the instruction followed by the text to a generator.
type GeneratorRewriter struct {
	generator genai.Generator
}

func NewGeneratorRewriter(g genai.Generator) *GeneratorRewriter {
	return &GeneratorRewriter{generator: g}
}

func (r *GeneratorRewriter) Rewrite(ctx context.Context, instruction, text string) (string, error) {
	out, err := r.generator.Generate(ctx, BuildPrompt(instruction, text))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BuildPrompt pairs a rewrite instruction with the content it applies to.
func BuildPrompt(instruction, text string) string {
	instruction = strings.TrimRight(strings.TrimSpace(instruction), ".:")
	return instruction + ":\n\n" + text
}

type Result struct {
	Text      string
	Strategy  string
	Converged bool
}

// Service runs the remote rewriter and falls back to the local one when the
// remote output equals the input.
type Service struct {
	remote Rewriter
	local  Rewriter
}

func NewService(remote, local Rewriter) *Service {
	return &Service{remote: remote, local: local}
}

// Rewrite returns remote errors unchanged. A non-converged rewrite is not an
// error; the local strategy's output is returned instead.
func (s *Service) Rewrite(ctx context.Context, instruction, text string) (*Result, error) {
	original := strings.TrimSpace(text)
	if original == "" {
		return nil, errors.New("nothing to rewrite")
	}
	// Rewriters trim their output, so surrounding whitespace is not a change.
	converged := func(out string) bool {
		return regeneration.RewriteConverged(original, strings.TrimSpace(out))
	}

	remote, err := s.remote.Rewrite(ctx, instruction, text)
	if err != nil {
		return nil, err
	}
	if converged(remote) {
		return &Result{Text: remote, Strategy: StrategyRemote, Converged: true}, nil
	}

	local, err := s.local.Rewrite(ctx, instruction, text)
	if err != nil {
		return nil, err
	}
	return &Result{
		Text:      local,
		Strategy:  StrategyLocal,
		Converged: converged(local),
	}, nil
}
