// Package originality turns web search results into a 0-100 originality score.
//
// The score is a length heuristic: a search snippet longer than a threshold is
// counted as a match against existing content. It does not look at what the
// snippets say.
package originality

import (
	"unicode/utf8"

	"ghostwriter-workers/internal/models"
)

const (
	MaxScore = 100
	MinScore = 0

	DefaultCap                  = 5
	DefaultLongSnippetThreshold = 200
	DefaultPenaltyPerMatch      = 10
)

// Options controls how snippets are scored.
type Options struct {
	// Cap is the number of leading snippets that are considered.
	Cap int
	// LongSnippetThreshold is the length in characters a snippet must exceed to count as a match.
	LongSnippetThreshold int
	// PenaltyPerMatch is subtracted from the score for every match.
	PenaltyPerMatch int
}

func DefaultOptions() Options {
	return Options{
		Cap:                  DefaultCap,
		LongSnippetThreshold: DefaultLongSnippetThreshold,
		PenaltyPerMatch:      DefaultPenaltyPerMatch,
	}
}

// Scorer scores snippets with a fixed set of options.
type Scorer struct {
	opts Options
}

func NewScorer(opts Options) *Scorer {
	return &Scorer{opts: opts}
}

func (s *Scorer) Options() Options {
	return s.opts
}

func (s *Scorer) Score(snippets []models.SearchSnippet) int {
	return Score(snippets, s.opts)
}

func (s *Scorer) Assess(snippets []models.SearchSnippet) models.OriginalityAssessment {
	return Assess(snippets, s.opts)
}

// Score returns the originality score for snippets in the order given.
// No snippets means no evidence of duplication, so the score is MaxScore.
func Score(snippets []models.SearchSnippet, opts Options) int {
	score := MaxScore
	penalty := opts.PenaltyPerMatch
	if penalty < 0 {
		penalty = 0
	}

	for _, s := range considered(snippets, opts.Cap) {
		if IsMatch(s, opts.LongSnippetThreshold) {
			score -= penalty
		}
	}

	if score < MinScore {
		return MinScore
	}
	return score
}

// Assess scores snippets and records which of them were looked at.
func Assess(snippets []models.SearchSnippet, opts Options) models.OriginalityAssessment {
	head := considered(snippets, opts.Cap)
	kept := make([]models.SearchSnippet, len(head))
	copy(kept, head)

	return models.OriginalityAssessment{
		Score:              Score(snippets, opts),
		ConsideredSnippets: kept,
	}
}

// IsMatch reports whether a snippet is long enough to count against originality.
// A snippet exactly at the threshold is not a match.
func IsMatch(s models.SearchSnippet, threshold int) bool {
	return utf8.RuneCountInString(s.Snippet) > threshold
}

// CountMatches returns how many of the considered snippets are matches.
func CountMatches(snippets []models.SearchSnippet, opts Options) int {
	n := 0
	for _, s := range considered(snippets, opts.Cap) {
		if IsMatch(s, opts.LongSnippetThreshold) {
			n++
		}
	}
	return n
}

func considered(snippets []models.SearchSnippet, limit int) []models.SearchSnippet {
	if limit <= 0 {
		return nil
	}
	if limit > len(snippets) {
		limit = len(snippets)
	}
	return snippets[:limit]
}
