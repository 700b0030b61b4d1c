package compiler

import (
	"go/ast"
	"go/token"
	"slices"
	"strings"

	"github.com/roach88/cqrsgen/internal/ir"
)

// Predicate reports whether a type declaration is a tagged type. doc is the
// comment group attached to the declaration, if any.
type Predicate func(spec *ast.TypeSpec, doc *ast.CommentGroup) bool

// Lookup locates one tagged type of a module.
type Lookup struct {
	Kind     string // "Effect" or "Error", used in diagnostics
	Describe string // human form of the rule, used in diagnostics
	Match    Predicate
}

// NameContains matches interface types whose name contains keyword.
func NameContains(keyword string) Predicate {
	return func(spec *ast.TypeSpec, _ *ast.CommentGroup) bool {
		return strings.Contains(spec.Name.Name, keyword)
	}
}

// Directive matches interface types carrying a //cqrs:<name> comment line.
func Directive(name string) Predicate {
	want := "//cqrs:" + name
	return func(_ *ast.TypeSpec, doc *ast.CommentGroup) bool {
		if doc == nil {
			return false
		}
		for _, c := range doc.List {
			if strings.TrimSpace(c.Text) == want {
				return true
			}
		}
		return false
	}
}

// NameLookups returns the default lookups: the Effect type is the interface
// whose name contains "Effect", the Error type the one containing "Error".
func NameLookups() (effect, failure Lookup) {
	return Lookup{Kind: "Effect", Describe: `an interface type whose name contains "Effect"`, Match: NameContains("Effect")},
		Lookup{Kind: "Error", Describe: `an interface type whose name contains "Error"`, Match: NameContains("Error")}
}

// DirectiveLookups returns lookups driven by //cqrs:effect and //cqrs:error.
func DirectiveLookups() (effect, failure Lookup) {
	return Lookup{Kind: "Effect", Describe: "an interface type marked //cqrs:effect", Match: Directive("effect")},
		Lookup{Kind: "Error", Describe: "an interface type marked //cqrs:error", Match: Directive("error")}
}

// ExtractTaggedTypes completes model with the module's Effect type, its
// variants, and its Error type.
func ExtractTaggedTypes(model ir.ModelDescriptor, effectLookup, errorLookup Lookup) (*ir.EffectDescriptor, error) {
	mod := model.Module
	effect, err := findTagged(mod, effectLookup)
	if err != nil {
		return nil, err
	}
	failure, err := findTagged(mod, errorLookup)
	if err != nil {
		return nil, err
	}

	if !embedsError(failure.spec.Type.(*ast.InterfaceType)) {
		return nil, errorf(ErrUnsupportedDeclaration, mod.Source.Path, mod.Position(failure.spec.Pos()),
			"Error type %s must embed error, e.g. type %s interface{ error }",
			failure.spec.Name.Name, failure.spec.Name.Name)
	}

	iface := effect.spec.Type.(*ast.InterfaceType)
	markers := interfaceMethods(iface)
	if len(markers) == 0 {
		return nil, errorf(ErrUnsupportedDeclaration, mod.Source.Path, mod.Position(effect.spec.Pos()),
			"Effect type %s declares no methods of its own; variants are the struct types implementing them",
			effect.spec.Name.Name)
	}

	variants, err := effectVariants(mod, effect.spec.Name.Name, markers)
	if err != nil {
		return nil, err
	}

	return &ir.EffectDescriptor{
		ModelDescriptor: model,
		Effect:          effect.spec.Name.Name,
		Variants:        variants,
		Error:           failure.spec.Name.Name,
	}, nil
}

func findTagged(mod *ir.ParsedModule, lookup Lookup) (declaredType, error) {
	var candidates []declaredType
	for _, dt := range typeSpecs(mod.File) {
		if _, ok := dt.spec.Type.(*ast.InterfaceType); !ok {
			continue
		}
		if lookup.Match(dt.spec, dt.doc) {
			candidates = append(candidates, dt)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return declaredType{}, errorf(ErrMissingTaggedType, mod.Source.Path, token.Position{},
			"No %s type found: expected %s", lookup.Kind, lookup.Describe)
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.spec.Name.Name
		}
		return declaredType{}, errorf(ErrAmbiguousTaggedType, mod.Source.Path, mod.Position(candidates[1].spec.Pos()),
			"More than one %s type found: %s", lookup.Kind, strings.Join(names, ", "))
	}
}

// embedsError reports whether iface embeds the predeclared error interface
// or declares Error() string itself.
func embedsError(iface *ast.InterfaceType) bool {
	if iface.Methods == nil {
		return false
	}
	for _, m := range iface.Methods.List {
		if len(m.Names) == 0 {
			if id, ok := m.Type.(*ast.Ident); ok && id.Name == "error" {
				return true
			}
			continue
		}
		fn, ok := m.Type.(*ast.FuncType)
		if !ok || m.Names[0].Name != "Error" || fn.Params.NumFields() != 0 || fn.Results.NumFields() != 1 {
			continue
		}
		if id, ok := fn.Results.List[0].Type.(*ast.Ident); ok && id.Name == "string" {
			return true
		}
	}
	return false
}

// interfaceMethods returns the names of the methods iface declares itself.
// Embedded interfaces are not followed.
func interfaceMethods(iface *ast.InterfaceType) []string {
	var names []string
	if iface.Methods == nil {
		return nil
	}
	for _, m := range iface.Methods.List {
		if _, ok := m.Type.(*ast.FuncType); !ok {
			continue
		}
		for _, n := range m.Names {
			names = append(names, n.Name)
		}
	}
	return names
}

// effectVariants returns, in declaration order, the non-interface types of
// mod that declare every marker method.
func effectVariants(mod *ir.ParsedModule, effect string, markers []string) ([]ir.EffectVariant, error) {
	type methodSet struct {
		names   []string
		pointer bool
	}
	methods := make(map[string]*methodSet)
	for _, decl := range mod.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
			continue
		}
		recv := fn.Recv.List[0].Type
		name := typeName(recv)
		set := methods[name]
		if set == nil {
			set = &methodSet{}
			methods[name] = set
		}
		set.names = append(set.names, fn.Name.Name)
		if _, ok := recv.(*ast.StarExpr); ok && slices.Contains(markers, fn.Name.Name) {
			set.pointer = true
		}
	}

	var variants []ir.EffectVariant
	for _, dt := range typeSpecs(mod.File) {
		spec := dt.spec
		if spec.Name.Name == effect {
			continue
		}
		if _, ok := spec.Type.(*ast.InterfaceType); ok {
			continue
		}
		set := methods[spec.Name.Name]
		if set == nil || !containsAll(set.names, markers) {
			continue
		}
		pos := mod.Position(spec.Pos())
		if spec.TypeParams != nil && len(spec.TypeParams.List) > 0 {
			return nil, errorf(ErrUnsupportedDeclaration, mod.Source.Path, pos,
				"effect variant %s is generic; variants must be concrete types", spec.Name.Name)
		}
		if !spec.Name.IsExported() {
			return nil, errorf(ErrUnsupportedDeclaration, mod.Source.Path, pos,
				"effect variant %s is unexported and cannot be referenced from the generated package", spec.Name.Name)
		}
		fields, err := variantFields(mod, spec)
		if err != nil {
			return nil, err
		}
		variants = append(variants, ir.EffectVariant{
			Name:    spec.Name.Name,
			Pointer: set.pointer,
			Fields:  fields,
			Pos:     spec.Pos(),
		})
	}
	return variants, nil
}

func variantFields(mod *ir.ParsedModule, spec *ast.TypeSpec) ([]ir.Field, error) {
	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		return []ir.Field{{Name: spec.Name.Name, Type: ast.NewIdent(spec.Name.Name), Self: true}}, nil
	}

	var fields []ir.Field
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			name := typeName(f.Type)
			if !ast.IsExported(name) {
				return nil, errorf(ErrUnsupportedDeclaration, mod.Source.Path, mod.Position(f.Pos()),
					"effect variant %s embeds unexported %s", spec.Name.Name, name)
			}
			fields = append(fields, ir.Field{Name: name, Type: f.Type})
			continue
		}
		for _, n := range f.Names {
			if !n.IsExported() {
				return nil, errorf(ErrUnsupportedDeclaration, mod.Source.Path, mod.Position(n.Pos()),
					"effect variant %s has unexported field %s", spec.Name.Name, n.Name)
			}
			fields = append(fields, ir.Field{Name: n.Name, Type: f.Type})
		}
	}
	return fields, nil
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
