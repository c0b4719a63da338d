// internal/workers/ghostwriter/rewrite-content/models.go
package rewritecontent

type Input struct {
	SessionID   string `json:"sessionId"`
	Content     string `json:"content"`
	Instruction string `json:"instruction"`
	Tone        string `json:"tone"`
}

type Output struct {
	SessionID     string `json:"sessionId,omitempty"`
	RewrittenText string `json:"rewrittenText"`
	Strategy      string `json:"strategy"`
	Converged     bool   `json:"converged"`
}
