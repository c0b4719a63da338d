package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	httpclient "ghostwriter-workers/internal/common/http"
)

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	config Config
	client *httpclient.Client
}

func NewGeminiClient(cfg Config) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &GeminiClient{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, httpclient.WithRetry(cfg.MaxRetries, 0)),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(g.buildRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrGenerationFailed, err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(g.config.BaseURL, "/"), url.PathEscape(g.config.Model))

	resp, err := g.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.config.APIKey)
		return req, nil
	})
	if err != nil {
		if httpclient.IsTimeout(err) || ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: gemini returned %d: %s", ErrGenerationFailed, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var apiResponse geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrGenerationFailed, err)
	}

	if apiResponse.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrGenerationFailed, apiResponse.PromptFeedback.BlockReason)
	}
	if len(apiResponse.Candidates) == 0 {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	}

	var sb strings.Builder
	for _, part := range apiResponse.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return cleanResponse(sb.String())
}

func (g *GeminiClient) buildRequest(prompt string) geminiRequest {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
	}
	if g.config.Temperature > 0 || g.config.MaxTokens > 0 {
		gc := &geminiGenerationConfig{MaxOutputTokens: g.config.MaxTokens}
		if g.config.Temperature > 0 {
			t := g.config.Temperature
			gc.Temperature = &t
		}
		req.GenerationConfig = gc
	}
	return req
}
