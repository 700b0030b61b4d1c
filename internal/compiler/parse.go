package compiler

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/cqrsgen/internal/ir"
)

// ParseModule parses the text of src into a declaration tree.
// Comments are kept because directive discovery reads them.
func ParseModule(src ir.SourceModule) (*ir.ParsedModule, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, src.Path, src.Text, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			return nil, errorf(ErrParseFailure, src.Path, list[0].Pos, "cannot parse module: %s", list[0].Msg)
		}
		return nil, errorf(ErrParseFailure, src.Path, token.Position{}, "cannot parse module: %v", err)
	}

	return &ir.ParsedModule{
		Source:  src,
		Fset:    fset,
		File:    file,
		Imports: fileImports(file),
	}, nil
}

// fileImports maps every usable local package name of file to its import
// path. Blank and dot imports are skipped.
func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := PackageNameFromPath(importPath)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		imports[name] = importPath
	}
	return imports
}

// PackageNameFromPath guesses the package name of an import path the way
// goimports does: the last element, skipping a major version suffix and
// dropping go- prefixes, .vN suffixes and characters invalid in identifiers.
func PackageNameFromPath(importPath string) string {
	elems := strings.Split(strings.Trim(importPath, "/"), "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 && isMajorVersion(name[i+1:]) {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return path.Base(importPath)
	}
	return b.String()
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// typeName returns the bare type name referenced by expr. Pointers,
// parentheses, package qualifiers and instantiation brackets are stripped.
func typeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.StarExpr:
		return typeName(e.X)
	case *ast.ParenExpr:
		return typeName(e.X)
	case *ast.IndexExpr:
		return typeName(e.X)
	case *ast.IndexListExpr:
		return typeName(e.X)
	}
	return ""
}

// typeSpecs returns every type declaration of file in declaration order with
// the doc comment that applies to it.
func typeSpecs(file *ast.File) []declaredType {
	var out []declaredType
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			out = append(out, declaredType{spec: ts, doc: doc})
		}
	}
	return out
}

type declaredType struct {
	spec *ast.TypeSpec
	doc  *ast.CommentGroup
}
