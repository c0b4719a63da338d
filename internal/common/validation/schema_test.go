package validation

import (
	"testing"

	apperrors "ghostwriter-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"sessionId": map[string]interface{}{"type": "string", "minLength": 1},
		"score":     map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
	},
	"required": []interface{}{"sessionId"},
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(map[string]map[string]interface{}{"reset-session": testSchema})

	tests := []struct {
		name      string
		variables string
		wantErr   bool
		contains  string
	}{
		{name: "valid", variables: `{"sessionId":"abc","score":40}`},
		{name: "extra process variables allowed", variables: `{"sessionId":"abc","other":true}`},
		{name: "missing required", variables: `{"score":40}`, wantErr: true, contains: "sessionId"},
		{name: "wrong type", variables: `{"sessionId":5}`, wantErr: true, contains: "sessionId"},
		{name: "out of range", variables: `{"sessionId":"a","score":101}`, wantErr: true, contains: "score"},
		{name: "empty document", variables: ``, wantErr: true, contains: "sessionId"},
		{name: "not json", variables: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate("reset-session", tt.variables)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			stdErr, ok := err.(*apperrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
			assert.False(t, stdErr.Retryable)
			if tt.contains != "" {
				assert.Contains(t, stdErr.Details, tt.contains)
			}
		})
	}
}

func TestValidator_UnknownTaskTypePasses(t *testing.T) {
	v := NewValidator(nil)
	assert.NoError(t, v.Validate("anything", `{"x":1}`))
}

func TestValidator_BadSchema(t *testing.T) {
	v := NewValidator(map[string]map[string]interface{}{
		"broken": {"type": 12},
	})
	err := v.Validate("broken", `{}`)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInternal, err.(*apperrors.StandardError).Code)
}

func TestValidateVariables(t *testing.T) {
	assert.NoError(t, ValidateVariables(nil, `{}`))
	assert.NoError(t, ValidateVariables(testSchema, `{"sessionId":"x"}`))
	assert.Error(t, ValidateVariables(testSchema, `{}`))
}
