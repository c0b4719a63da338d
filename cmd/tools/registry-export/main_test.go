package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"ghostwriter-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExportValidateUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	out, err := runCmd(t, "export", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 6 activities")

	out, err = runCmd(t, "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 6 activities")

	_, err = runCmd(t, "update", "--path", path, "--id", registry.TaskRewriteContent, "--field", "retries", "--value", "4")
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Find(registry.TaskRewriteContent)
	require.True(t, ok)
	assert.Equal(t, 4, a.Retries)
}

func TestUpdate_RejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, registry.SaveRegistry(registry.Default(), path))

	tests := []struct {
		field, value, want string
	}{
		{"status", "finished", "implementation status"},
		{"timeout", "soon", "invalid timeout"},
		{"retries", "many", "invalid retries"},
		{"owner", "me", "unknown field"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := runCmd(t, "update", "--path", path, "--id", registry.TaskExportContent, "--field", tt.field, "--value", tt.value)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := runCmd(t, "update", "--path", path, "--id", "missing", "--field", "version", "--value", "2.0.0")
	assert.ErrorContains(t, err, "not found")

	_, err = runCmd(t, "update", "--path", path, "--field", "version", "--value", "2.0.0")
	assert.ErrorContains(t, err, "id")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := runCmd(t, "validate", "--path", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "registry validation failed")
}
