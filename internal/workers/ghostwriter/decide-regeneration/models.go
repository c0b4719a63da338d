// internal/workers/ghostwriter/decide-regeneration/models.go
package decideregeneration

import "ghostwriter-workers/internal/models"

type Input struct {
	Assessment models.OriginalityAssessment `json:"assessment"`
	// OriginalityThreshold overrides the configured threshold when set.
	OriginalityThreshold *int   `json:"originalityThreshold,omitempty"`
	Tone                 string `json:"tone"`
}

type Output struct {
	ShouldOffer bool   `json:"shouldOffer"`
	Instruction string `json:"instruction"`
}
