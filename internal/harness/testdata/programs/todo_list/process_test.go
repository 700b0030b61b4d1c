package app

import (
	"errors"
	"reflect"
	"testing"

	"example.com/app/internal/todo"
)

func TestCommandMarksDirtyAndPersists(t *testing.T) {
	l := NewLifecycle()

	effects, err := TodoModelCommandAddItem{Item: "milk"}.Process(l)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []Effect{TodoModelRenderItems{Items: []string{"milk"}}}
	if !reflect.DeepEqual(effects, want) {
		t.Fatalf("effects = %#v, want %#v", effects, want)
	}
	if l.persisted != 1 || l.dirty {
		t.Fatalf("persisted = %d, dirty = %v; want 1, false", l.persisted, l.dirty)
	}
}

func TestQueryDoesNotPersist(t *testing.T) {
	l := NewLifecycle()
	if _, err := (TodoModelCommandAddItem{Item: "milk"}).Process(l); err != nil {
		t.Fatalf("Process: %v", err)
	}

	var req Cqrs = TodoModelQueryGetAllItems{}
	effects, err := req.Process(l)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	want := []Effect{TodoModelRenderItems{Items: []string{"milk"}}}
	if !reflect.DeepEqual(effects, want) {
		t.Fatalf("effects = %#v, want %#v", effects, want)
	}
	if l.persisted != 1 {
		t.Fatalf("persisted = %d, want 1", l.persisted)
	}
}

func TestPersistFailure(t *testing.T) {
	l := NewLifecycle()
	l.readOnly = true

	effects, err := TodoModelCommandCleanList{}.Process(l)
	if effects != nil {
		t.Fatalf("effects = %#v, want nil", effects)
	}
	var notPersisted NotPersisted
	if !errors.As(err, &notPersisted) {
		t.Fatalf("err = %v, want NotPersisted", err)
	}
	var processing ProcessingError
	if !errors.As(err, &processing) {
		t.Fatalf("err = %v, want a ProcessingError", err)
	}
	if !l.dirty {
		t.Fatal("state is not marked dirty")
	}
}

func TestEffectsReturnedByPointer(t *testing.T) {
	got := mapTodoModelEffects([]todo.TodoEffect{
		todo.RenderItems{Items: []string{"a"}},
		&todo.RenderItems{Items: []string{"b"}},
	})
	want := []Effect{
		TodoModelRenderItems{Items: []string{"a"}},
		TodoModelRenderItems{Items: []string{"b"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mapped = %#v, want %#v", got, want)
	}
}
