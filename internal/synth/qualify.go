package synth

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"go/types"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
)

// Qualifier renders type expressions of one module so that they resolve
// from the output package. Local type names get the module's alias and
// package selectors are re-imported through the shared ImportSet.
type Qualifier struct {
	module  *ir.ParsedModule
	alias   string // empty when the module is the output package
	imports *ImportSet
}

// NewQualifier creates a qualifier for module. alias is the name the
// output file imports the module's package under.
func NewQualifier(module *ir.ParsedModule, alias string, imports *ImportSet) *Qualifier {
	return &Qualifier{module: module, alias: alias, imports: imports}
}

// Name qualifies a type declared in the module.
func (q *Qualifier) Name(name string) string {
	if q.alias == "" {
		return name
	}
	return q.alias + "." + name
}

// Type renders expr.
func (q *Qualifier) Type(expr ast.Expr) (string, error) {
	rewritten, err := q.rewrite(expr)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), rewritten); err != nil {
		return "", fmt.Errorf("render type: %w", err)
	}
	return buf.String(), nil
}

func (q *Qualifier) fail(node ast.Node, format string, args ...any) error {
	return &compiler.CompileError{
		Code:    compiler.ErrUnsupportedDeclaration,
		Path:    q.module.Source.Path,
		Pos:     q.module.Position(node.Pos()),
		Message: fmt.Sprintf(format, args...),
	}
}

// rewrite returns a position-free copy of expr with every identifier
// qualified.
func (q *Qualifier) rewrite(expr ast.Expr) (ast.Expr, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		if types.Universe.Lookup(e.Name) != nil {
			return ast.NewIdent(e.Name), nil
		}
		if !e.IsExported() {
			return nil, q.fail(e, "type %s is unexported and cannot be referenced from the generated package", e.Name)
		}
		if q.alias == "" {
			return ast.NewIdent(e.Name), nil
		}
		return &ast.SelectorExpr{X: ast.NewIdent(q.alias), Sel: ast.NewIdent(e.Name)}, nil

	case *ast.SelectorExpr:
		pkg, ok := e.X.(*ast.Ident)
		if !ok {
			return nil, q.fail(e, "unsupported qualified type %s", types.ExprString(e))
		}
		importPath, ok := q.module.Imports[pkg.Name]
		if !ok {
			return nil, q.fail(e, "package %s of type %s is not imported by the module", pkg.Name, types.ExprString(e))
		}
		alias := q.imports.Add(importPath, compiler.PackageNameFromPath(importPath))
		return &ast.SelectorExpr{X: ast.NewIdent(alias), Sel: ast.NewIdent(e.Sel.Name)}, nil

	case *ast.BasicLit:
		return &ast.BasicLit{Kind: e.Kind, Value: e.Value}, nil

	case *ast.ParenExpr:
		x, err := q.rewrite(e.X)
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{X: x}, nil

	case *ast.StarExpr:
		x, err := q.rewrite(e.X)
		if err != nil {
			return nil, err
		}
		return &ast.StarExpr{X: x}, nil

	case *ast.UnaryExpr:
		x, err := q.rewrite(e.X)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: e.Op, X: x}, nil

	case *ast.BinaryExpr:
		x, err := q.rewrite(e.X)
		if err != nil {
			return nil, err
		}
		y, err := q.rewrite(e.Y)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{X: x, Op: e.Op, Y: y}, nil

	case *ast.Ellipsis:
		elt, err := q.rewrite(e.Elt)
		if err != nil {
			return nil, err
		}
		return &ast.Ellipsis{Elt: elt}, nil

	case *ast.ArrayType:
		out := &ast.ArrayType{}
		if e.Len != nil {
			n, err := q.rewrite(e.Len)
			if err != nil {
				return nil, err
			}
			out.Len = n
		}
		elt, err := q.rewrite(e.Elt)
		if err != nil {
			return nil, err
		}
		out.Elt = elt
		return out, nil

	case *ast.MapType:
		key, err := q.rewrite(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := q.rewrite(e.Value)
		if err != nil {
			return nil, err
		}
		return &ast.MapType{Key: key, Value: value}, nil

	case *ast.ChanType:
		value, err := q.rewrite(e.Value)
		if err != nil {
			return nil, err
		}
		return &ast.ChanType{Dir: e.Dir, Value: value}, nil

	case *ast.FuncType:
		params, err := q.fields(e.Params)
		if err != nil {
			return nil, err
		}
		results, err := q.fields(e.Results)
		if err != nil {
			return nil, err
		}
		if params == nil {
			params = &ast.FieldList{}
		}
		return &ast.FuncType{Params: params, Results: results}, nil

	case *ast.StructType:
		fields, err := q.fields(e.Fields)
		if err != nil {
			return nil, err
		}
		if fields == nil {
			fields = &ast.FieldList{}
		}
		return &ast.StructType{Fields: fields}, nil

	case *ast.InterfaceType:
		methods, err := q.fields(e.Methods)
		if err != nil {
			return nil, err
		}
		if methods == nil {
			methods = &ast.FieldList{}
		}
		return &ast.InterfaceType{Methods: methods}, nil

	case *ast.IndexExpr:
		x, err := q.rewrite(e.X)
		if err != nil {
			return nil, err
		}
		index, err := q.rewrite(e.Index)
		if err != nil {
			return nil, err
		}
		return &ast.IndexExpr{X: x, Index: index}, nil

	case *ast.IndexListExpr:
		x, err := q.rewrite(e.X)
		if err != nil {
			return nil, err
		}
		out := &ast.IndexListExpr{X: x}
		for _, idx := range e.Indices {
			r, err := q.rewrite(idx)
			if err != nil {
				return nil, err
			}
			out.Indices = append(out.Indices, r)
		}
		return out, nil
	}
	return nil, q.fail(expr, "unsupported type expression %s", types.ExprString(expr))
}

// fields rewrites the types of a field list. Field names, method names and
// tags are kept as they are.
func (q *Qualifier) fields(list *ast.FieldList) (*ast.FieldList, error) {
	if list == nil {
		return nil, nil
	}
	out := &ast.FieldList{}
	for _, f := range list.List {
		typ, err := q.rewrite(f.Type)
		if err != nil {
			return nil, err
		}
		field := &ast.Field{Type: typ}
		for _, n := range f.Names {
			field.Names = append(field.Names, ast.NewIdent(n.Name))
		}
		if f.Tag != nil {
			field.Tag = &ast.BasicLit{Kind: f.Tag.Kind, Value: f.Tag.Value}
		}
		out.List = append(out.List, field)
	}
	return out, nil
}
