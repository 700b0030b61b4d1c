package synth

import (
	"fmt"
	"go/ast"
	"path"
	"path/filepath"
	"strings"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/ir"
)

// Input is everything Aggregate needs for one invocation.
type Input struct {
	Package    string // package clause of the output file
	ImportPath string // import path of the output package
	Lifecycle  string // type asserted to implement Lifecycle
	Models     []*ir.Model

	// LifecyclePath and Declared describe the lifecycle file, which is part
	// of the output package. Declared lists its package-level names.
	LifecyclePath string
	Declared      []string
}

// Aggregate synthesizes the complete program for in. Models keep the order
// they were given in; aggregated effects and errors follow that order.
func Aggregate(in Input) (*ir.Program, error) {
	if err := checkModels(in.Models); err != nil {
		return nil, err
	}

	imports := NewImportSet(localNames...)
	imports.Add("fmt", "fmt")

	names := newNameSet()
	names.add(in.Lifecycle, "lifecycle type")
	names.addDeclared(in.Declared, in.LifecyclePath, in.Lifecycle)
	for _, shared := range []string{CqrsName, LifecycleName, AppStateName, EffectName, ProcessingErrorName, NotPersistedName} {
		names.add(shared, "shared declaration")
	}

	p := &ir.Program{
		Package:   in.Package,
		Lifecycle: in.Lifecycle,
		Errors: ir.ErrorAggregate{
			Name:         ProcessingErrorName,
			Marker:       lowerFirst(ProcessingErrorName),
			NotPersisted: NotPersistedName,
		},
		Effects: ir.EffectAggregate{
			Name:   EffectName,
			Marker: lowerFirst(EffectName),
		},
	}

	for _, model := range in.Models {
		mod := model.Module
		alias := ""
		if in.ImportPath == "" || mod.Source.ImportPath != in.ImportPath {
			alias = imports.Add(mod.Source.ImportPath, mod.Package())
		}
		q := NewQualifier(mod, alias, imports)

		p.Shared.Accessors = append(p.Shared.Accessors, ir.Accessor{
			Name: model.Handle,
			Type: "*" + q.Name(model.Handle),
		})
		if alias == "" {
			names.addDeclared(DeclaredNames(mod), mod.Source.Path, in.Lifecycle)
		}

		errVariant := ir.ErrorVariant{
			Name:    model.Domain + "Error",
			Model:   model.Domain,
			Wrapped: q.Name(model.Error),
		}
		p.Errors.Variants = append(p.Errors.Variants, errVariant)
		names.add(errVariant.Name, "error variant of "+model.Domain)

		mapping, effects, err := EffectMapping(model, q)
		if err != nil {
			return nil, err
		}
		for _, e := range effects {
			names.add(e.Name, "effect variant "+e.Source)
		}
		p.Effects.Variants = append(p.Effects.Variants, effects...)
		names.add(mapping.Func, "effect mapping of "+model.Domain)

		api := ir.ModelAPI{Domain: model.Domain, Effects: mapping}
		if api.Query, err = Enumeration(model, ir.Query, model.Queries, q); err != nil {
			return nil, err
		}
		if api.Command, err = Enumeration(model, ir.Command, model.Commands, q); err != nil {
			return nil, err
		}
		for _, enum := range []*ir.Enumeration{api.Query, api.Command} {
			if enum == nil {
				continue
			}
			names.add(enum.Name, "enumeration of "+model.Domain)
			for _, v := range enum.Variants {
				names.add(v.Type, fmt.Sprintf("variant of %s (%s.%s)", enum.Name, model.Handle, v.Operation))
			}
		}
		api.QueryDispatch = Dispatch(model, api.Query, q)
		api.CommandDispatch = Dispatch(model, api.Command, q)
		for _, d := range []*ir.Dispatch{api.QueryDispatch, api.CommandDispatch} {
			if d != nil {
				names.add(d.Func, "dispatch of "+d.Enum)
			}
		}

		p.Models = append(p.Models, api)
	}

	for _, alias := range imports.Aliases() {
		names.add(alias, "import alias")
	}
	if err := names.err(); err != nil {
		return nil, err
	}

	p.Imports = imports.Imports()
	return p, nil
}

// DeclaredNames lists the package-level identifiers of mod. Methods, blank
// identifiers and init functions are left out.
func DeclaredNames(mod *ir.ParsedModule) []string {
	var names []string
	add := func(name string) {
		if name != "_" {
			names = append(names, name)
		}
	}
	for _, decl := range mod.File.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.Name != "init" {
				add(d.Name.Name)
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					add(s.Name.Name)
				case *ast.ValueSpec:
					for _, n := range s.Names {
						add(n.Name)
					}
				}
			}
		}
	}
	return names
}

// checkModels rejects invocations where two modules share a domain or a
// handle name, since generated identifiers are derived from them.
func checkModels(models []*ir.Model) error {
	domains := make(map[string]string, len(models))
	handles := make(map[string]string, len(models))
	for _, m := range models {
		path := m.Module.Source.Path
		if prev, ok := domains[m.Domain]; ok {
			return &compiler.CompileError{
				Code:    compiler.ErrDuplicateModel,
				Path:    path,
				Message: fmt.Sprintf("model %s is also declared in %s; domain names must be unique across modules", m.Domain, prev),
			}
		}
		if prev, ok := handles[m.Handle]; ok {
			return &compiler.CompileError{
				Code:    compiler.ErrDuplicateModel,
				Path:    path,
				Message: fmt.Sprintf("handle %s is also declared in %s; handle names must be unique across modules", m.Handle, prev),
			}
		}
		domains[m.Domain] = path
		handles[m.Handle] = path
	}
	return nil
}

// nameSet records the owner of every top-level identifier of the output
// file. The first collision is kept and reported by err.
type nameSet struct {
	owners    map[string]string
	collision string
}

func newNameSet() *nameSet {
	return &nameSet{owners: make(map[string]string)}
}

func (s *nameSet) add(name, owner string) {
	if prev, ok := s.owners[name]; ok {
		if prev == owner {
			return
		}
		if s.collision == "" {
			s.collision = fmt.Sprintf("generated identifier %s for %s collides with %s", name, owner, prev)
		}
		return
	}
	s.owners[name] = owner
}

// addDeclared records the package-level names of a file of the output
// package, except skip.
func (s *nameSet) addDeclared(names []string, file, skip string) {
	owner := "declaration in " + path.Clean(filepath.ToSlash(file))
	for _, name := range names {
		if name != skip {
			s.add(name, owner)
		}
	}
}

func (s *nameSet) err() error {
	if s.collision == "" {
		return nil
	}
	return &compiler.CompileError{
		Code:    compiler.ErrNameCollision,
		Message: s.collision + "; rename one of the declarations",
	}
}

// Summary returns a one-line description of p for logs.
func Summary(p *ir.Program) string {
	var queries, commands int
	for _, m := range p.Models {
		if m.Query != nil {
			queries += len(m.Query.Variants)
		}
		if m.Command != nil {
			commands += len(m.Command.Variants)
		}
	}
	parts := []string{
		fmt.Sprintf("%d models", len(p.Models)),
		fmt.Sprintf("%d queries", queries),
		fmt.Sprintf("%d commands", commands),
		fmt.Sprintf("%d effects", len(p.Effects.Variants)),
	}
	return strings.Join(parts, ", ")
}
