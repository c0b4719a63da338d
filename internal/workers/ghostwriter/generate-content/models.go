// internal/workers/ghostwriter/generate-content/models.go
package generatecontent

type Input struct {
	SessionID string `json:"sessionId"`
	Prompt    string `json:"prompt"`
}

type Output struct {
	SessionID       string `json:"sessionId"`
	GeneratedText   string `json:"generatedText"`
	GenerationCount int    `json:"generationCount"`
}
