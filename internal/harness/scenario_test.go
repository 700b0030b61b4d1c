package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenario = `name: minimal
description: "Minimal scenario"
lifecycle: app/lifecycle.go
models:
  - internal/todo/model.go
files:
  app/lifecycle.go: |
    package app
expect:
  contains: ["package app"]
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(validScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, DefaultModule, s.ModulePath())
	assert.Equal(t, []string{"internal/todo/model.go"}, s.Models)
	assert.Equal(t, "package app\n", s.Files["app/lifecycle.go"])
	assert.Equal(t, []string{"package app"}, s.Expect.Contains)
	assert.False(t, s.Strict)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown_field",
			yaml: validScenario + "expects: {}\n",
			want: "field expects not found",
		},
		{
			name: "missing_name",
			yaml: "description: d\nlifecycle: a.go\nfiles: {a.go: x}\nexpect: {golden: true}\n",
			want: "name is required",
		},
		{
			name: "missing_description",
			yaml: "name: n\nlifecycle: a.go\nfiles: {a.go: x}\nexpect: {golden: true}\n",
			want: "description is required",
		},
		{
			name: "missing_lifecycle",
			yaml: "name: n\ndescription: d\nfiles: {a.go: x}\nexpect: {golden: true}\n",
			want: "lifecycle is required",
		},
		{
			name: "missing_files",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\nexpect: {golden: true}\n",
			want: "files map is required",
		},
		{
			name: "not_go",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\nmodels: [model.txt]\nfiles: {a.go: x}\nexpect: {golden: true}\n",
			want: "model.txt: not a .go file",
		},
		{
			name: "unclean_path",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\nfiles: {./a.go: x}\nexpect: {golden: true}\n",
			want: "must be a clean relative path",
		},
		{
			name: "bad_discovery",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\ndiscovery: magic\nfiles: {a.go: x}\nexpect: {golden: true}\n",
			want: "discovery must be",
		},
		{
			name: "no_expectation",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\nfiles: {a.go: x}\nexpect: {}\n",
			want: "at least one expectation is required",
		},
		{
			name: "error_contains_without_code",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\nfiles: {a.go: x}\nexpect: {error_contains: [x]}\n",
			want: "error_contains requires error_code",
		},
		{
			name: "mixed_outcomes",
			yaml: "name: n\ndescription: d\nlifecycle: a.go\nfiles: {a.go: x}\nexpect: {error_code: E201, golden: true}\n",
			want: "error_code cannot be combined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenarios(t *testing.T) {
	dir := t.TempDir()
	second := `name: second
description: "Second"
lifecycle: app/lifecycle.go
files: {app/lifecycle.go: "package app"}
expect: {error_code: E212}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(second), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(validScenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "minimal", scenarios[0].Name)
	assert.Equal(t, "second", scenarios[1].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte(validScenario), 0o644))
	_, err = LoadScenarios(dir)
	assert.ErrorContains(t, err, `scenario name "minimal" is also used by`)
}
