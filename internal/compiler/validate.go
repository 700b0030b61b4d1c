package compiler

import (
	"errors"
	"go/ast"
	"go/token"

	"github.com/roach88/cqrsgen/internal/ir"
)

// Validate checks that every declaration of desc the generated package
// refers to is exported. Returns all problems found (does not fail-fast).
func Validate(desc *ir.EffectDescriptor) []*CompileError {
	var errs []*CompileError
	path := desc.Module.Source.Path

	check := func(role, name string) {
		if !ast.IsExported(name) {
			errs = append(errs, errorf(ErrUnsupportedDeclaration, path, token.Position{},
				"%s type %s is unexported and cannot be referenced from the generated package", role, name))
		}
	}
	check("model", desc.Domain)
	check("handle", desc.Handle)
	check("Effect", desc.Effect)
	check("Error", desc.Error)

	return errs
}

// Join folds validation errors into a single error, nil when errs is empty.
func Join(errs []*CompileError) error {
	if len(errs) == 0 {
		return nil
	}
	list := make([]error, len(errs))
	for i, e := range errs {
		list[i] = e
	}
	return errors.Join(list...)
}
