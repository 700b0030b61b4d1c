package compiler

import (
	"go/ast"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqrsgen/internal/ir"
)

func opNames(ops []ir.ClassifiedOperation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	return names
}

func TestClassify(t *testing.T) {
	c, err := Classify(describe(t, todoSource))
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"GetAllItems"}, opNames(c.Queries)); diff != "" {
		t.Errorf("queries mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AddItem", "CleanList", "RemoveItem"}, opNames(c.Commands)); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, c.NearMisses)

	add := c.Commands[0]
	assert.Equal(t, ir.Command, add.Category)
	require.Len(t, add.Args, 1)
	assert.Equal(t, "item", add.Args[0].Name)
	assert.Equal(t, "string", add.Args[0].Type.(*ast.Ident).Name)
	assert.Empty(t, c.Commands[1].Args)
	assert.Equal(t, ir.Query, c.Queries[0].Category)
}

func TestClassifyNearMisses(t *testing.T) {
	src := `package todo

type M struct{}
type H struct{}

var _ CqrsModel = (*M)(nil)
var _ CqrsModelLock = (*H)(nil)

type Effect interface{ effect() }
type WrongEffectType interface{ wrong() }
type Error interface{ error }

func (h *H) Good() ([]Effect, Error)                 { return nil, nil }
func (h *H) WrongEffect() ([]WrongEffectType, Error) { return nil, nil }
func (h *H) WrongError() (bool, []Effect, error)     { return false, nil, nil }
func (h *H) hidden() ([]Effect, Error)               { return nil, nil }
func (h *H) Len() int                                { return 0 }
func (m *M) Ignored() ([]Effect, Error)              { return nil, nil }
`
	mod := parse(t, src)
	desc, err := ExtractTaggedTypes(ir.ModelDescriptor{Module: mod, Domain: "M", Handle: "H"},
		Lookup{Kind: "Effect", Match: func(s *ast.TypeSpec, _ *ast.CommentGroup) bool { return s.Name.Name == "Effect" }},
		Lookup{Kind: "Error", Match: NameContains("Error")})
	require.NoError(t, err)

	c, err := Classify(desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Good"}, opNames(c.Queries))
	assert.Empty(t, c.Commands)

	require.Len(t, c.NearMisses, 3)
	assert.Equal(t, "WrongEffect", c.NearMisses[0].Operation)
	assert.Equal(t, WrongEffect, c.NearMisses[0].Outcome)
	assert.Contains(t, c.NearMisses[0].Reason, "returns ([]WrongEffectType, Error) but the Effect type is Effect")
	assert.Equal(t, "WrongError", c.NearMisses[1].Operation)
	assert.Equal(t, WrongError, c.NearMisses[1].Outcome)
	assert.Equal(t, "hidden", c.NearMisses[2].Operation)
	assert.Contains(t, c.NearMisses[2].Reason, "unexported")
	assert.Contains(t, c.NearMisses[2].String(), "internal/todo/model.go:")
}

func TestClassifyNoOperations(t *testing.T) {
	desc := describe(t, `package todo

type TodoModel struct{}
type TodoModelLock struct{}

var _ CqrsModel = (*TodoModel)(nil)
var _ CqrsModelLock = (*TodoModelLock)(nil)

type TodoEffect interface{ todoEffect() }
type TodoError interface{ error }

func (l *TodoModelLock) Count() int { return 0 }
`)

	_, err := Classify(desc)
	require.Error(t, err)
	assert.Equal(t, ErrNoOperations, CodeOf(err))
	assert.Contains(t, err.Error(), "func (h *TodoModelLock) MyQuery(args...) ([]TodoEffect, TodoError)")
	assert.Contains(t, err.Error(), "func (h *TodoModelLock) MyCommand(args...) (bool, []TodoEffect, TodoError)")
}

func TestClassifyArguments(t *testing.T) {
	desc := describe(t, `package todo

import "time"

type TodoModel struct{}
type TodoModelLock struct{}

var _ CqrsModel = (*TodoModel)(nil)
var _ CqrsModelLock = (*TodoModelLock)(nil)

type TodoEffect interface{ todoEffect() }
type TodoError interface{ error }

func (l TodoModelLock) Move(from, to int, _ bool, at time.Time, tags ...string) (bool, []TodoEffect, TodoError) {
	return false, nil, nil
}
`)

	c, err := Classify(desc)
	require.NoError(t, err)
	require.Len(t, c.Commands, 1)

	args := c.Commands[0].Args
	require.Len(t, args, 5)
	names := []string{args[0].Name, args[1].Name, args[2].Name, args[3].Name, args[4].Name}
	assert.Equal(t, []string{"from", "to", "Arg2", "at", "tags"}, names)
	assert.False(t, args[3].Variadic)
	assert.True(t, args[4].Variadic)
	assert.Equal(t, "string", args[4].Type.(*ast.Ident).Name)
}

func TestValidate(t *testing.T) {
	desc := describe(t, todoSource)
	assert.Empty(t, Validate(desc))
	assert.NoError(t, Join(Validate(desc)))

	desc.Effect = "todoEffect"
	desc.Handle = "lock"
	errs := Validate(desc)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrUnsupportedDeclaration, errs[0].Code)
	assert.Contains(t, errs[0].Message, "handle type lock")
	assert.Contains(t, errs[1].Message, "Effect type todoEffect")
	assert.Error(t, Join(errs))
}
