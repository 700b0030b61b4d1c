package compiler

import (
	"fmt"
	"go/ast"
	"go/token"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/cqrsgen/internal/ir"
)

// Capability interfaces recognized in assertions of the form
//
//	var _ CqrsModel = (*TodoModel)(nil)
//
// The interface may be package qualified; only its final identifier counts.
const (
	CapModel     = "CqrsModel"
	CapHandle    = "CqrsModelLock"
	CapLifecycle = "Lifecycle"
)

// assertion is one blank-identifier interface assertion.
type assertion struct {
	capability string
	typeName   string
	pos        token.Pos
}

// ExtractCapabilities returns, for each requested capability, the single
// type of mod asserted to implement it. Missing or duplicate implementers
// are reported together in one error.
func ExtractCapabilities(mod *ir.ParsedModule, caps []string) (map[string]string, error) {
	found := make(map[string][]string, len(caps))
	for _, a := range assertions(mod.File) {
		if !slices.Contains(caps, a.capability) {
			continue
		}
		if !slices.Contains(found[a.capability], a.typeName) {
			found[a.capability] = append(found[a.capability], a.typeName)
		}
	}

	result := make(map[string]string, len(caps))
	var problems []string
	code := ""
	for _, c := range caps {
		names := found[c]
		switch len(names) {
		case 1:
			result[c] = names[0]
		case 0:
			problems = append(problems, fmt.Sprintf("no type implements %s", c))
			if code == "" {
				code = ErrMissingCapability
			}
		default:
			sorted := slices.Clone(names)
			sort.Strings(sorted)
			problems = append(problems, fmt.Sprintf("expected exactly one type implementing %s, found %d (%s)",
				c, len(sorted), strings.Join(sorted, ", ")))
			code = ErrDuplicateCapability
		}
	}
	if len(problems) > 0 {
		return nil, errorf(code, mod.Source.Path, token.Position{},
			"%s; requested [%s], found [%s]; declare them like: var _ %s = (*MyType)(nil)",
			strings.Join(problems, "; "), strings.Join(caps, ", "), describeFound(caps, found), caps[0])
	}
	return result, nil
}

func describeFound(caps []string, found map[string][]string) string {
	var parts []string
	for _, c := range caps {
		if len(found[c]) == 0 {
			continue
		}
		names := slices.Clone(found[c])
		sort.Strings(names)
		parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(names, ", ")))
	}
	return strings.Join(parts, "; ")
}

// assertions collects every `var _ I = value` declaration of file whose value
// names a concrete type.
func assertions(file *ast.File) []assertion {
	declared := make(map[string]bool)
	for _, dt := range typeSpecs(file) {
		declared[dt.spec.Name.Name] = true
	}

	var out []assertion
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || vs.Type == nil {
				continue
			}
			capability := typeName(vs.Type)
			if capability == "" {
				continue
			}
			for i, name := range vs.Names {
				if name.Name != "_" || i >= len(vs.Values) {
					continue
				}
				if impl := implementingType(vs.Values[i], declared); impl != "" {
					out = append(out, assertion{capability: capability, typeName: impl, pos: name.Pos()})
				}
			}
		}
	}
	return out
}

// implementingType extracts T from (*T)(nil), T{}, &T{}, new(T) and T(x).
// Plain calls are only accepted when T is a type declared in the module so
// that function calls are not mistaken for conversions.
func implementingType(expr ast.Expr, declared map[string]bool) string {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return implementingType(e.X, declared)
	case *ast.UnaryExpr:
		if e.Op == token.AND {
			return implementingType(e.X, declared)
		}
	case *ast.CompositeLit:
		return typeName(e.Type)
	case *ast.CallExpr:
		if id, ok := e.Fun.(*ast.Ident); ok && id.Name == "new" && len(e.Args) == 1 {
			return typeName(e.Args[0])
		}
		if _, ok := e.Fun.(*ast.ParenExpr); ok {
			return typeName(e.Fun)
		}
		if name := typeName(e.Fun); declared[name] {
			return name
		}
	}
	return ""
}
