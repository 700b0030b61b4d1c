package synth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
)

const todoSource = `package todo

import "time"

type TodoModel struct{}
type TodoModelLock struct{}

var _ CqrsModel = (*TodoModel)(nil)
var _ CqrsModelLock = (*TodoModelLock)(nil)

type TodoEffect interface{ todoEffect() }

type RenderItems struct {
	Items []string
}

func (RenderItems) todoEffect() {}

type Alert struct {
	time.Time
	Text string
}

func (*Alert) todoEffect() {}

type Count int

func (Count) todoEffect() {}

type TodoError interface{ error }

func (l *TodoModelLock) AddItem(item string) (bool, []TodoEffect, TodoError)       { return false, nil, nil }
func (l *TodoModelLock) RemoveItem(pos int) (bool, []TodoEffect, TodoError)        { return false, nil, nil }
func (l *TodoModelLock) Tag(due time.Time, tags ...string) (bool, []TodoEffect, TodoError) { return false, nil, nil }
func (l *TodoModelLock) GetAllItems() ([]TodoEffect, TodoError)                    { return nil, nil }
`

const shoppingSource = `package shopping

type ShoppingModel struct{}
type ShoppingModelLock struct{}

var _ CqrsModel = (*ShoppingModel)(nil)
var _ CqrsModelLock = (*ShoppingModelLock)(nil)

type ShoppingEffect interface{ shoppingEffect() }

type RenderItems struct {
	Items []string
}

func (RenderItems) shoppingEffect() {}

type ShoppingError interface{ error }

func (l *ShoppingModelLock) AddItem(item string) (bool, []ShoppingEffect, ShoppingError) { return false, nil, nil }
`

// buildModel runs the analysis stages over src.
func buildModel(t *testing.T, path, importPath, src string) *ir.Model {
	t.Helper()
	mod, err := compiler.ParseModule(ir.SourceModule{Path: path, ImportPath: importPath, Text: []byte(src)})
	require.NoError(t, err)

	caps, err := compiler.ExtractCapabilities(mod, []string{compiler.CapModel, compiler.CapHandle})
	require.NoError(t, err)

	effect, failure := compiler.NameLookups()
	desc, err := compiler.ExtractTaggedTypes(ir.ModelDescriptor{
		Module: mod,
		Domain: caps[compiler.CapModel],
		Handle: caps[compiler.CapHandle],
	}, effect, failure)
	require.NoError(t, err)

	c, err := compiler.Classify(desc)
	require.NoError(t, err)
	return &ir.Model{EffectDescriptor: *desc, Queries: c.Queries, Commands: c.Commands}
}

func todoModel(t *testing.T) *ir.Model {
	return buildModel(t, "internal/todo/model.go", "example.com/app/internal/todo", todoSource)
}

func shoppingModel(t *testing.T) *ir.Model {
	return buildModel(t, "internal/shopping/model.go", "example.com/app/internal/shopping", shoppingSource)
}
