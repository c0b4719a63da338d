// internal/workers/ghostwriter/check-originality/models.go
package checkoriginality

import "ghostwriter-workers/internal/models"

type Input struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

// Output flattens the assessment next to the raw object so gateways can branch
// on score without a FEEL path.
type Output struct {
	Assessment          models.OriginalityAssessment `json:"assessment"`
	Score               int                          `json:"score"`
	ConsideredSnippets  []models.SearchSnippet       `json:"consideredSnippets"`
	SimilarContentFound bool                         `json:"similarContentFound"`
	ResultCount         int                          `json:"resultCount"`
	SearchError         string                       `json:"searchError,omitempty"`
}
