package compiler

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/roach88/cqrsgen/internal/ir"
)

// NearMiss is a handle method that almost qualifies as an operation. It is
// excluded from generation.
type NearMiss struct {
	Path      string         `json:"path"`
	Operation string         `json:"operation"`
	Outcome   Outcome        `json:"-"`
	Reason    string         `json:"reason"`
	Pos       token.Position `json:"-"`
}

// String renders the near miss as a diagnostic line.
func (n NearMiss) String() string {
	if n.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", n.Pos.Filename, n.Pos.Line, n.Pos.Column, n.Operation, n.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", n.Path, n.Operation, n.Reason)
}

// Classification is the operation set of one handle.
type Classification struct {
	Queries    []ir.ClassifiedOperation // sorted by name
	Commands   []ir.ClassifiedOperation // sorted by name
	NearMisses []NearMiss
}

// Classify partitions the methods of desc.Handle into queries and commands.
// Methods with any other signature are ignored. A handle without any
// operation is an error whose message shows the expected signatures.
func Classify(desc *ir.EffectDescriptor) (*Classification, error) {
	mod := desc.Module
	c := &Classification{}

	for _, decl := range mod.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		if typeName(fn.Recv.List[0].Type) != desc.Handle {
			continue
		}

		outcome := ClassifyResults(resultRefs(fn.Type.Results), desc.Effect, desc.Error)
		switch {
		case outcome == NotOperation:
			continue
		case outcome.NearMiss():
			c.NearMisses = append(c.NearMisses, NearMiss{
				Path:      mod.Source.Path,
				Operation: fn.Name.Name,
				Outcome:   outcome,
				Reason:    nearMissReason(outcome, fn, desc),
				Pos:       mod.Position(fn.Pos()),
			})
			continue
		case !fn.Name.IsExported():
			c.NearMisses = append(c.NearMisses, NearMiss{
				Path:      mod.Source.Path,
				Operation: fn.Name.Name,
				Outcome:   outcome,
				Reason:    fmt.Sprintf("%s signature on an unexported method", outcome),
				Pos:       mod.Position(fn.Pos()),
			})
			continue
		}

		op := ir.ClassifiedOperation{
			Name: fn.Name.Name,
			Args: operationArgs(fn.Type.Params),
			Pos:  fn.Pos(),
		}
		if outcome == IsQuery {
			op.Category = ir.Query
			c.Queries = append(c.Queries, op)
		} else {
			op.Category = ir.Command
			c.Commands = append(c.Commands, op)
		}
	}

	sort.SliceStable(c.Queries, func(i, j int) bool { return c.Queries[i].Name < c.Queries[j].Name })
	sort.SliceStable(c.Commands, func(i, j int) bool { return c.Commands[i].Name < c.Commands[j].Name })

	if len(c.Queries) == 0 && len(c.Commands) == 0 {
		return nil, errorf(ErrNoOperations, mod.Source.Path, token.Position{},
			"did not find a single query or command on %[1]s; declare them like:\n\n"+
				"\tfunc (h *%[1]s) MyQuery(args...) ([]%[2]s, %[3]s)\n"+
				"\tfunc (h *%[1]s) MyCommand(args...) (bool, []%[2]s, %[3]s)\n\n"+
				"the bool reports whether the state changed; with it the operation is a command, without it a query",
			desc.Handle, desc.Effect, desc.Error)
	}
	return c, nil
}

func nearMissReason(outcome Outcome, fn *ast.FuncDecl, desc *ir.EffectDescriptor) string {
	got := resultString(fn.Type.Results)
	switch outcome {
	case WrongEffect:
		return fmt.Sprintf("returns %s but the Effect type is %s", got, desc.Effect)
	case WrongError:
		return fmt.Sprintf("returns %s but the Error type is %s", got, desc.Error)
	default:
		return fmt.Sprintf("returns %s; expected ([]%[2]s, %[3]s) or (bool, []%[2]s, %[3]s)", got, desc.Effect, desc.Error)
	}
}

func resultString(results *ast.FieldList) string {
	if results == nil {
		return "()"
	}
	var parts []string
	for _, f := range results.List {
		n := max(len(f.Names), 1)
		for range n {
			parts = append(parts, types.ExprString(f.Type))
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// operationArgs flattens a parameter list. Unnamed and blank parameters are
// named ArgN after their position.
func operationArgs(params *ast.FieldList) []ir.Arg {
	if params == nil {
		return nil
	}
	var args []ir.Arg
	for _, f := range params.List {
		typ, variadic := f.Type, false
		if e, ok := typ.(*ast.Ellipsis); ok {
			typ, variadic = e.Elt, true
		}
		if len(f.Names) == 0 {
			args = append(args, ir.Arg{Name: fmt.Sprintf("Arg%d", len(args)), Type: typ, Variadic: variadic})
			continue
		}
		for _, n := range f.Names {
			name := n.Name
			if name == "_" {
				name = fmt.Sprintf("Arg%d", len(args))
			}
			args = append(args, ir.Arg{Name: name, Type: typ, Variadic: variadic})
		}
	}
	return args
}
