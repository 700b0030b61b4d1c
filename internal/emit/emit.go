// Package emit renders a synthesized program as Go source.
package emit

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/roach88/cqrsgen/internal/ir"
)

//go:embed templates/cqrs.go.tmpl
var fileTemplate string

var tmpl = template.Must(template.New("cqrs").
	Funcs(template.FuncMap{"lower": strings.ToLower}).
	Parse(fileTemplate))

// FormatError reports generated code that go/format rejected. Source is the
// unformatted output, kept for debugging.
type FormatError struct {
	Source []byte
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("generated code does not format: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// view adds the presentation-only fields the template needs.
type view struct {
	*ir.Program
	Generator    string
	StdImports   []ir.Import
	OtherImports []ir.Import
}

// Emit renders p as a formatted Go source file. The output depends on p
// only, so emitting the same program twice yields identical bytes.
func Emit(p *ir.Program) ([]byte, error) {
	v := view{Program: p, Generator: ir.GeneratorName}
	for _, imp := range p.Imports {
		if imp.Std {
			v.StdImports = append(v.StdImports, imp)
		} else {
			v.OtherImports = append(v.OtherImports, imp)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "file", v); err != nil {
		return nil, fmt.Errorf("render package %s: %w", p.Package, err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, &FormatError{Source: buf.Bytes(), Err: err}
	}
	return out, nil
}
