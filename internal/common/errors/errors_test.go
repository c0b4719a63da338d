package errors

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError_RetryableCodes(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{name: "generation failed", err: NewGenerationFailedError(fmt.Errorf("status 502")), wantRetries: 2},
		{name: "generation timeout", err: NewGenerationTimeoutError(fmt.Errorf("deadline")), wantRetries: 1},
		{name: "rewrite failed", err: NewRewriteFailedError(fmt.Errorf("status 500")), wantRetries: 2},
		{name: "session store", err: NewSessionStoreFailedError(fmt.Errorf("redis down")), wantRetries: 3},
		{name: "invalid prompt", err: NewInvalidPromptError("prompt is empty"), wantRetries: 0},
		{name: "invalid input", err: NewInvalidInputError("prompt: required"), wantRetries: 0},
		{name: "rate limited", err: NewRateLimitedError("s1", time.Minute), wantRetries: 0},
		{name: "export format", err: NewUnsupportedExportFormatError("pdf"), wantRetries: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, tt.err.Retryable, bpmn.Retryable)
		})
	}
}

func TestConvertToBPMNError_NonRetryableOverridesTable(t *testing.T) {
	stdErr := NewGenerationFailedError(fmt.Errorf("bad request"))
	stdErr.Retryable = false

	assert.Zero(t, ConvertToBPMNError(stdErr).Retries)
}

func TestRateLimitedError_CarriesRetryAfter(t *testing.T) {
	stdErr := NewRateLimitedError("session-1", 90*time.Second)
	vars := ConvertToBPMNError(stdErr).ToErrorVariables()

	assert.Equal(t, int64(90), vars["retryAfterSeconds"])
	assert.Equal(t, "RATE_LIMITED", vars["errorCode"])
	assert.Equal(t, "RATE_LIMIT", vars["errorCategory"])
	assert.Contains(t, stdErr.Error(), "session-1")
}

func TestErrorVariablesJSON(t *testing.T) {
	raw := errorVariablesJSON(ConvertToBPMNError(NewNoContentError("session has no text")))

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &vars))
	assert.Equal(t, "NO_CONTENT", vars["errorCode"])
	assert.Equal(t, "SESSION", vars["errorCategory"])
	assert.Equal(t, false, vars["retryable"])
}

func TestNormalize(t *testing.T) {
	stdErr := NewSessionNotFoundError("abc")
	wrapped := fmt.Errorf("load: %w", stdErr)

	assert.Same(t, stdErr, Normalize(wrapped))

	plain := Normalize(fmt.Errorf("something odd"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.False(t, plain.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidPrompt))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeUnsupportedExportFormat))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeGenerationTimeout))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeRewriteFailed))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionStoreFailed))
	assert.Equal(t, "EXPORT", GetErrorCategory(ErrCodeExportFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeGenerationFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeRateLimited))
}
