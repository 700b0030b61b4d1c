package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	root := writeProject(t)
	out := filepath.Join(root, "app", "cqrs_gen.go")

	stdout, _, err := runCLI(t, withArgs("check", root)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "file does not exist")

	_, _, err = runCLI(t, withArgs("generate", root)...)
	require.NoError(t, err)

	stdout, _, err = runCLI(t, withArgs("check", root)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, out+" is up to date")

	writeFile(t, root, "internal/todo/model.go", todoSource+`
func (l *TodoModelLock) Clear() (bool, []TodoEffect, TodoError) { return true, nil, nil }
`)
	stdout, _, err = runCLI(t, withArgs("check", root)...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "file differs from generated code")
}

func TestCheckJSON(t *testing.T) {
	root := writeProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "app", "cqrs_gen.go"), []byte("package app\n"), 0o644))

	stdout, _, err := runCLI(t, withArgs("check", root, "--format", "json")...)
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "failed", resp.Status)
	assert.False(t, resp.Data.Current)
	assert.Equal(t, "file differs from generated code", resp.Data.Reason)
}

func TestCheckAnalysisError(t *testing.T) {
	root := writeProject(t)
	writeFile(t, root, "internal/todo/model.go", "package todo\n\nfunc broken( {\n")

	stdout, _, err := runCLI(t, withArgs("check", root)...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E201]")
}
