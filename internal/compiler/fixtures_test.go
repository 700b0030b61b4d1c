package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cqrsgen/internal/ir"
)

const todoSource = `package todo

import (
	"sync"

	"example.com/app/cqrs"
)

type TodoModel struct {
	items []string
}

var _ cqrs.CqrsModel = (*TodoModel)(nil)

type TodoModelLock struct {
	mu    sync.RWMutex
	model TodoModel
}

var _ cqrs.CqrsModelLock = (*TodoModelLock)(nil)

type TodoEffect interface {
	todoEffect()
}

type RenderItems struct {
	Items []string
}

func (RenderItems) todoEffect() {}

type TodoProcessingError interface {
	error
	todoProcessingError()
}

func (l *TodoModelLock) AddItem(item string) (bool, []TodoEffect, TodoProcessingError) {
	return true, nil, nil
}

func (l *TodoModelLock) RemoveItem(pos int) (bool, []TodoEffect, TodoProcessingError) {
	return true, nil, nil
}

func (l *TodoModelLock) CleanList() (bool, []TodoEffect, TodoProcessingError) {
	return true, nil, nil
}

func (l *TodoModelLock) GetAllItems() ([]TodoEffect, TodoProcessingError) {
	return nil, nil
}

func (l *TodoModelLock) lock() {}
`

// parse parses src as internal/todo/model.go of module example.com/app.
func parse(t *testing.T, src string) *ir.ParsedModule {
	t.Helper()
	mod, err := ParseModule(ir.SourceModule{
		Path:       "internal/todo/model.go",
		ImportPath: "example.com/app/internal/todo",
		Text:       []byte(src),
	})
	require.NoError(t, err)
	return mod
}

// describe runs capability and tagged type extraction with name lookups.
func describe(t *testing.T, src string) *ir.EffectDescriptor {
	t.Helper()
	mod := parse(t, src)
	caps, err := ExtractCapabilities(mod, []string{CapModel, CapHandle})
	require.NoError(t, err)

	effect, failure := NameLookups()
	desc, err := ExtractTaggedTypes(ir.ModelDescriptor{
		Module: mod,
		Domain: caps[CapModel],
		Handle: caps[CapHandle],
	}, effect, failure)
	require.NoError(t, err)
	return desc
}
