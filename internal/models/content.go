package models

import "strings"

// SearchSnippet is a single web search hit, in the order the search service returned it.
type SearchSnippet struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// OriginalityAssessment is the result of scoring a set of search snippets.
type OriginalityAssessment struct {
	Score              int             `json:"score"`
	ConsideredSnippets []SearchSnippet `json:"consideredSnippets"`
}

// RegenerationDecision tells the caller whether to offer a rewrite and what to ask for.
type RegenerationDecision struct {
	ShouldOffer bool   `json:"shouldOffer"`
	Instruction string `json:"instruction"`
}

// Tone is an optional style hint for rewrites.
type Tone string

const (
	ToneNeutral Tone = "Neutral"
	ToneCasual  Tone = "Casual"
	ToneFormal  Tone = "Formal"
	ToneExcited Tone = "Excited"
)

// ParseTone matches s case-insensitively against the known tones.
// An empty hint is Neutral. ok is false for anything unrecognised.
func ParseTone(s string) (Tone, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "neutral":
		return ToneNeutral, true
	case "casual":
		return ToneCasual, true
	case "formal":
		return ToneFormal, true
	case "excited":
		return ToneExcited, true
	default:
		return ToneNeutral, false
	}
}
