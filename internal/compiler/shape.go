package compiler

import "go/ast"

// TypeKind is the coarse shape of a result type.
type TypeKind int

const (
	KindOther TypeKind = iota
	KindNamed
	KindSlice
)

// TypeRef is a normalized result type. Only the shapes operations are
// classified by are distinguished; everything else is KindOther.
type TypeRef struct {
	Kind TypeKind
	Name string // qualified name for KindNamed, e.g. "bool" or "pkg.T"
	Elem *TypeRef
}

// Normalize reduces expr to a TypeRef.
func Normalize(expr ast.Expr) TypeRef {
	switch e := expr.(type) {
	case *ast.Ident:
		return TypeRef{Kind: KindNamed, Name: e.Name}
	case *ast.SelectorExpr:
		if x, ok := e.X.(*ast.Ident); ok {
			return TypeRef{Kind: KindNamed, Name: x.Name + "." + e.Sel.Name}
		}
	case *ast.ParenExpr:
		return Normalize(e.X)
	case *ast.ArrayType:
		if e.Len == nil {
			elem := Normalize(e.Elt)
			return TypeRef{Kind: KindSlice, Elem: &elem}
		}
	}
	return TypeRef{Kind: KindOther}
}

// IsNamed reports whether t is the named type name.
func (t TypeRef) IsNamed(name string) bool {
	return t.Kind == KindNamed && t.Name == name
}

// isSliceOf reports whether t is a slice; with a non-empty elem the element
// must be that named type.
func (t TypeRef) isSliceOf(elem string) bool {
	if t.Kind != KindSlice || t.Elem == nil {
		return false
	}
	return elem == "" || t.Elem.IsNamed(elem)
}

// Outcome is the verdict of ClassifyResults.
type Outcome int

const (
	NotOperation Outcome = iota
	IsQuery
	IsCommand
	WrongEffect  // right error, slice of another type
	WrongSuccess // right error, unsupported success values
	WrongError   // operation shape with another named error type
)

// String returns a short description used in diagnostics.
func (o Outcome) String() string {
	switch o {
	case IsQuery:
		return "query"
	case IsCommand:
		return "command"
	case WrongEffect:
		return "wrong effect type"
	case WrongSuccess:
		return "wrong success values"
	case WrongError:
		return "wrong error type"
	default:
		return "not an operation"
	}
}

// NearMiss reports whether the outcome is close enough to an operation to
// warn about.
func (o Outcome) NearMiss() bool {
	return o == WrongEffect || o == WrongSuccess || o == WrongError
}

// ClassifyResults applies the operation decision table to the normalized
// result list of a method:
//
//	([]Effect, Error)        query
//	(bool, []Effect, Error)  command
//
// Methods ending in the module's Error type but otherwise off, and methods
// of operation shape ending in another named type, are near misses.
func ClassifyResults(results []TypeRef, effect, errName string) Outcome {
	if len(results) == 0 {
		return NotOperation
	}
	last, success := results[len(results)-1], results[:len(results)-1]

	if last.IsNamed(errName) {
		switch {
		case queryShape(success, effect):
			return IsQuery
		case commandShape(success, effect):
			return IsCommand
		case queryShape(success, "") || commandShape(success, ""):
			return WrongEffect
		default:
			return WrongSuccess
		}
	}
	if last.Kind == KindNamed && (queryShape(success, effect) || commandShape(success, effect)) {
		return WrongError
	}
	return NotOperation
}

func queryShape(success []TypeRef, effect string) bool {
	return len(success) == 1 && success[0].isSliceOf(effect)
}

func commandShape(success []TypeRef, effect string) bool {
	return len(success) == 2 && success[0].IsNamed("bool") && success[1].isSliceOf(effect)
}

// resultRefs normalizes a result list, expanding grouped names.
func resultRefs(results *ast.FieldList) []TypeRef {
	if results == nil {
		return nil
	}
	var refs []TypeRef
	for _, f := range results.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		ref := Normalize(f.Type)
		for range n {
			refs = append(refs, ref)
		}
	}
	return refs
}
