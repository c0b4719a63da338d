// internal/workers/ghostwriter/export-content/models.go
package exportcontent

type Input struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
	Format    string `json:"format"`
}

type Output struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	// Content is the rendered file, base64 encoded.
	Content string `json:"content"`
	Size    int    `json:"size"`
}
