package synth

import (
	"fmt"
	"go/token"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
)

// Enumeration builds the request enumeration of one category. It returns
// nil when ops is empty; an empty category is not emitted.
func Enumeration(model *ir.Model, category ir.Category, ops []ir.ClassifiedOperation, q *Qualifier) (*ir.Enumeration, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	name := model.Domain + category.String()
	enum := &ir.Enumeration{
		Name:     name,
		Marker:   lowerFirst(name),
		Domain:   model.Domain,
		Handle:   model.Handle,
		Category: category,
	}

	seen := make(map[string]string, len(ops))
	for _, op := range ops {
		variant := VariantName(op.Name)
		if prev, ok := seen[variant]; ok {
			return nil, &compiler.CompileError{
				Code:    compiler.ErrVariantCollision,
				Path:    model.Module.Source.Path,
				Pos:     model.Module.Position(op.Pos),
				Message: fmt.Sprintf("operations %s and %s both map to %s variant %s", prev, op.Name, name, variant),
			}
		}
		seen[variant] = op.Name

		fields, err := argFields(op.Args, q)
		if err != nil {
			return nil, err
		}
		enum.Variants = append(enum.Variants, ir.EnumVariant{
			Name:      variant,
			Type:      name + variant,
			Operation: op.Name,
			Fields:    fields,
		})
	}
	return enum, nil
}

// argFields turns operation arguments into exported request fields.
// Variadic arguments become slices.
func argFields(args []ir.Arg, q *Qualifier) ([]ir.RenderedField, error) {
	fields := make([]ir.RenderedField, 0, len(args))
	used := make(map[string]bool, len(args))
	for i, arg := range args {
		typ, err := q.Type(arg.Type)
		if err != nil {
			return nil, err
		}
		if arg.Variadic {
			typ = "[]" + typ
		}
		name := upperFirst(arg.Name)
		if used[name] || !token.IsIdentifier(name) {
			name = fmt.Sprintf("Arg%d", i)
		}
		used[name] = true
		fields = append(fields, ir.RenderedField{Name: name, Type: typ})
	}
	return fields, nil
}
