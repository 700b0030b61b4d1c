package synth

import (
	"go/parser"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
)

func TestQualifierType(t *testing.T) {
	mod, err := compiler.ParseModule(ir.SourceModule{
		Path: "internal/todo/model.go",
		Text: []byte("package todo\n\nimport (\n\t\"time\"\n\tds \"github.com/bmatcuk/doublestar/v4\"\n)\n"),
	})
	require.NoError(t, err)

	tests := []struct {
		expr string
		want string
	}{
		{"string", "string"},
		{"error", "error"},
		{"Item", "todo.Item"},
		{"*Item", "*todo.Item"},
		{"[]Item", "[]todo.Item"},
		{"[4]byte", "[4]byte"},
		{"map[string][]*Item", "map[string][]*todo.Item"},
		{"time.Duration", "time.Duration"},
		{"ds.GlobOption", "doublestar.GlobOption"},
		{"chan<- Item", "chan<- todo.Item"},
		{"func(Item) error", "func(todo.Item) error"},
		{"Pair[Item, int]", "todo.Pair[todo.Item, int]"},
		{"any", "any"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			imports := NewImportSet()
			q := NewQualifier(mod, "todo", imports)

			expr, err := parser.ParseExpr(tt.expr)
			require.NoError(t, err)
			got, err := q.Type(expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQualifierLocalModule(t *testing.T) {
	mod, err := compiler.ParseModule(ir.SourceModule{Path: "app/model.go", Text: []byte("package app\n")})
	require.NoError(t, err)
	q := NewQualifier(mod, "", NewImportSet())

	expr, err := parser.ParseExpr("[]Item")
	require.NoError(t, err)
	got, err := q.Type(expr)
	require.NoError(t, err)
	assert.Equal(t, "[]Item", got)
	assert.Equal(t, "Item", q.Name("Item"))
}

func TestQualifierErrors(t *testing.T) {
	mod, err := compiler.ParseModule(ir.SourceModule{Path: "internal/todo/model.go", Text: []byte("package todo\n")})
	require.NoError(t, err)
	q := NewQualifier(mod, "todo", NewImportSet())

	for expr, want := range map[string]string{
		"item":       "type item is unexported",
		"[]*item":    "type item is unexported",
		"sql.DB":     "package sql of type sql.DB is not imported",
		"struct{}{}": "unsupported type expression",
		"x.y.Z":      "unsupported qualified type",
	} {
		e, err := parser.ParseExpr(expr)
		require.NoError(t, err, expr)
		_, err = q.Type(e)
		require.Error(t, err, expr)
		assert.Equal(t, compiler.ErrUnsupportedDeclaration, compiler.CodeOf(err), expr)
		assert.Contains(t, err.Error(), want, expr)
	}
}
