package ir

import (
	"go/ast"
	"go/token"
)

// SourceModule is one input file as handed over by the module resolver.
type SourceModule struct {
	Path       string // path as supplied by the caller
	ImportPath string // Go import path of the file's package
	Text       []byte
}

// ParsedModule is the declaration tree of a SourceModule.
type ParsedModule struct {
	Source  SourceModule
	Fset    *token.FileSet
	File    *ast.File
	Imports map[string]string // local package name -> import path
}

// Package returns the package name declared by the module.
func (m *ParsedModule) Package() string {
	return m.File.Name.Name
}

// Position resolves p against the module's file set.
func (m *ParsedModule) Position(p token.Pos) token.Position {
	if m.Fset == nil || !p.IsValid() {
		return token.Position{}
	}
	return m.Fset.Position(p)
}

// ModelDescriptor pairs a module with its domain model and guarded handle.
type ModelDescriptor struct {
	Module *ParsedModule
	Domain string // type asserting CqrsModel
	Handle string // type asserting CqrsModelLock
}

// EffectDescriptor extends a ModelDescriptor with the module's tagged types.
type EffectDescriptor struct {
	ModelDescriptor
	Effect   string
	Variants []EffectVariant // declaration order
	Error    string
}

// EffectVariant is one member of a module's Effect sum type.
type EffectVariant struct {
	Name    string
	Pointer bool // marker methods are declared on *Name
	Fields  []Field
	Pos     token.Pos
}

// Field is a field of an effect variant.
type Field struct {
	Name string
	Type ast.Expr

	// Self marks the single field of a non-struct variant; it holds the
	// variant value itself.
	Self bool
}

// Category splits classified operations into queries and commands.
type Category int

const (
	Query Category = iota + 1
	Command
)

// String returns "Query" or "Command".
func (c Category) String() string {
	switch c {
	case Query:
		return "Query"
	case Command:
		return "Command"
	default:
		return "Unknown"
	}
}

// MarshalText renders the category by name in JSON reports.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Arg is one non-receiver parameter of an operation.
type Arg struct {
	Name     string
	Type     ast.Expr // element type when Variadic
	Variadic bool
}

// ClassifiedOperation is a handle method recognized as a query or command.
type ClassifiedOperation struct {
	Name     string
	Args     []Arg
	Category Category
	Pos      token.Pos
}

// Model is everything the synthesizers need to know about one module.
type Model struct {
	EffectDescriptor
	Queries  []ClassifiedOperation // sorted by Name
	Commands []ClassifiedOperation // sorted by Name
}
