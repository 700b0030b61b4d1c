package compiler

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqrsgen/internal/ir"
)

func extract(t *testing.T, src string, lookups func() (Lookup, Lookup)) (*ir.EffectDescriptor, error) {
	t.Helper()
	effect, failure := lookups()
	return ExtractTaggedTypes(ir.ModelDescriptor{Module: parse(t, src), Domain: "M", Handle: "H"}, effect, failure)
}

func TestExtractTaggedTypes(t *testing.T) {
	desc := describe(t, todoSource)

	assert.Equal(t, "TodoModel", desc.Domain)
	assert.Equal(t, "TodoModelLock", desc.Handle)
	assert.Equal(t, "TodoEffect", desc.Effect)
	assert.Equal(t, "TodoProcessingError", desc.Error)
	require.Len(t, desc.Variants, 1)
	assert.Equal(t, "RenderItems", desc.Variants[0].Name)
	assert.False(t, desc.Variants[0].Pointer)
	require.Len(t, desc.Variants[0].Fields, 1)
	assert.Equal(t, "Items", desc.Variants[0].Fields[0].Name)
}

func TestExtractTaggedTypesVariantShapes(t *testing.T) {
	desc, err := extract(t, `package todo

import "time"

type Effect interface {
	isEffect()
}

type Count int

func (Count) isEffect() {}

type Alert struct {
	time.Time
	Text, Level string
}

func (*Alert) isEffect() {}

type Render struct{}

func (Render) isEffect() {}

type NotAVariant struct{}

type Error interface {
	error
}
`, NameLookups)
	require.NoError(t, err)

	names := make([]string, len(desc.Variants))
	for i, v := range desc.Variants {
		names[i] = v.Name
	}
	assert.Equal(t, []string{"Count", "Alert", "Render"}, names, "declaration order")

	count := desc.Variants[0]
	require.Len(t, count.Fields, 1)
	assert.True(t, count.Fields[0].Self)
	assert.Equal(t, "Count", count.Fields[0].Name)

	alert := desc.Variants[1]
	assert.True(t, alert.Pointer)
	require.Len(t, alert.Fields, 3)
	assert.Equal(t, "Time", alert.Fields[0].Name)
	assert.IsType(t, &ast.SelectorExpr{}, alert.Fields[0].Type, "embedded time.Time")
	assert.False(t, alert.Fields[0].Self)
	assert.Equal(t, "Text", alert.Fields[1].Name)
	assert.Equal(t, "Level", alert.Fields[2].Name)
	assert.Equal(t, "string", alert.Fields[2].Type.(*ast.Ident).Name)

	assert.Empty(t, desc.Variants[2].Fields)
}

func TestExtractTaggedTypesMissingEffect(t *testing.T) {
	_, err := extract(t, `package todo

type Error interface{ error }
`, NameLookups)
	require.Error(t, err)
	assert.Equal(t, ErrMissingTaggedType, CodeOf(err))
	assert.Contains(t, err.Error(), "No Effect type found")
}

func TestExtractTaggedTypesAmbiguousEffect(t *testing.T) {
	_, err := extract(t, `package todo

type UIEffect interface{ ui() }
type NetEffect interface{ net() }
type Error interface{ error }
`, NameLookups)
	require.Error(t, err)
	assert.Equal(t, ErrAmbiguousTaggedType, CodeOf(err))
	assert.Contains(t, err.Error(), "More than one Effect type found: UIEffect, NetEffect")
}

func TestExtractTaggedTypesIgnoresNonInterfaces(t *testing.T) {
	desc, err := extract(t, `package todo

type SideEffect struct{}

type Effect interface{ effect() }

type ErrorCode int

type Error interface{ error }
`, NameLookups)
	require.NoError(t, err)
	assert.Equal(t, "Effect", desc.Effect)
	assert.Equal(t, "Error", desc.Error)
}

func TestExtractTaggedTypesDirectives(t *testing.T) {
	src := `package todo

//cqrs:effect
type Output interface {
	output()
}

type (
	// Failure is returned by every operation.
	//cqrs:error
	Failure interface {
		error
	}

	// OtherEffect is not marked.
	OtherEffect interface {
		other()
	}
)

type Line string

func (Line) output() {}
`
	desc, err := extract(t, src, DirectiveLookups)
	require.NoError(t, err)
	assert.Equal(t, "Output", desc.Effect)
	assert.Equal(t, "Failure", desc.Error)
	require.Len(t, desc.Variants, 1)
	assert.Equal(t, "Line", desc.Variants[0].Name)

	_, err = extract(t, src, NameLookups)
	require.Error(t, err)
	assert.Equal(t, ErrMissingTaggedType, CodeOf(err), "no interface name contains Error")
}

func TestExtractTaggedTypesErrorMethod(t *testing.T) {
	src := "package todo\n\ntype Effect interface{ effect() }\ntype Error interface {\n\tError() string\n\ttodoError()\n}\ntype Render struct{}\n\nfunc (Render) effect() {}\n"
	desc, err := extract(t, src, NameLookups)
	require.NoError(t, err)
	assert.Equal(t, "Error", desc.Error)
}

func TestExtractTaggedTypesUnsupported(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "effect without methods",
			src:  "package todo\n\ntype Effect interface{}\ntype Error interface{ error }\n",
			want: "declares no methods",
		},
		{
			name: "unexported variant",
			src:  "package todo\n\ntype Effect interface{ effect() }\ntype Error interface{ error }\ntype render struct{}\n\nfunc (render) effect() {}\n",
			want: "effect variant render is unexported",
		},
		{
			name: "unexported field",
			src:  "package todo\n\ntype Effect interface{ effect() }\ntype Error interface{ error }\ntype Render struct{ items []string }\n\nfunc (Render) effect() {}\n",
			want: "effect variant Render has unexported field items",
		},
		{
			name: "generic variant",
			src:  "package todo\n\ntype Effect interface{ effect() }\ntype Error interface{ error }\ntype Render[T any] struct{ Items []T }\n\nfunc (Render[T]) effect() {}\n",
			want: "effect variant Render is generic",
		},
		{
			name: "error without error",
			src:  "package todo\n\ntype Effect interface{ effect() }\ntype Error interface{ todoError() }\ntype Render struct{}\n\nfunc (Render) effect() {}\n",
			want: "Error type Error must embed error",
		},
		{
			name: "error with wrong Error method",
			src:  "package todo\n\ntype Effect interface{ effect() }\ntype Error interface{ Error() int }\ntype Render struct{}\n\nfunc (Render) effect() {}\n",
			want: "Error type Error must embed error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extract(t, tt.src, NameLookups)
			require.Error(t, err)
			assert.Equal(t, ErrUnsupportedDeclaration, CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
