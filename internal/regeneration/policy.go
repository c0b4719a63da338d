// Package regeneration decides when a rewrite should be offered and builds the
// instruction sent to the rewrite service.
package regeneration

import (
	"strings"

	"ghostwriter-workers/internal/models"
)

const (
	BaseInstruction  = "Rewrite the following content to make it original and distinct"
	ParaphraseClause = "Ensure it is paraphrased and does not match existing content"

	DefaultThreshold = 100
)

var toneClauses = map[models.Tone]string{
	models.ToneCasual:  "more casual and friendly",
	models.ToneFormal:  "more formal and professional",
	models.ToneExcited: "more enthusiastic and excited",
}

// ToneClause returns the tone adjustment for t. Neutral and unknown tones have none.
func ToneClause(t models.Tone) (string, bool) {
	clause, ok := toneClauses[t]
	return clause, ok
}

// Instruction builds the rewrite directive for an optional tone.
func Instruction(tone models.Tone) string {
	parts := []string{BaseInstruction}
	if clause, ok := ToneClause(tone); ok {
		parts = append(parts, "Make the tone "+clause)
	}
	parts = append(parts, ParaphraseClause)
	return strings.Join(parts, ". ")
}

// Decide offers a rewrite when the score is below threshold.
func Decide(assessment models.OriginalityAssessment, threshold int, tone models.Tone) models.RegenerationDecision {
	return models.RegenerationDecision{
		ShouldOffer: assessment.Score < threshold,
		Instruction: Instruction(tone),
	}
}

// RewriteConverged reports whether a rewrite actually changed the text.
// Comparison is exact; near-identical output still counts as converged.
func RewriteConverged(original, rewritten string) bool {
	return original != rewritten
}

// Policy binds a threshold so callers only pass the assessment and tone.
type Policy struct {
	Threshold int
}

func NewPolicy(threshold int) *Policy {
	return &Policy{Threshold: threshold}
}

func (p *Policy) Decide(assessment models.OriginalityAssessment, tone models.Tone) models.RegenerationDecision {
	return Decide(assessment, p.Threshold, tone)
}
