package ir

// Program is the complete set of declarations synthesized for one
// invocation. The emitter renders it in a fixed order: imports, shared
// declarations, Errors, Effects, then Models in caller order.
type Program struct {
	Package   string // package clause of the output file
	Lifecycle string // user type asserted to implement Lifecycle
	Imports   []Import
	Shared    Shared
	Errors    ErrorAggregate
	Effects   EffectAggregate
	Models    []ModelAPI
}

// Import is one import spec of the output file.
type Import struct {
	Name string // explicit alias, empty when it matches the path's last element
	Path string
	Std  bool
}

// Shared holds the dispatch-capability declarations every model relies on.
type Shared struct {
	Accessors []Accessor // AppState methods, one per model handle
}

// Accessor is an AppState method returning a model's guarded handle.
type Accessor struct {
	Name string
	Type string
}

// ErrorAggregate is the cross-model ProcessingError sum type.
type ErrorAggregate struct {
	Name         string
	Marker       string
	Variants     []ErrorVariant // one per model, caller order
	NotPersisted string
}

// ErrorVariant wraps one model's domain error type.
type ErrorVariant struct {
	Name    string
	Model   string
	Wrapped string
}

// EffectAggregate is the cross-model Effect sum type.
type EffectAggregate struct {
	Name     string
	Marker   string
	Variants []AggregatedEffect
}

// AggregatedEffect is a model's effect variant renamed with the model prefix.
type AggregatedEffect struct {
	Name   string
	Model  string
	Source string // qualified domain variant type
	Fields []RenderedField
}

// RenderedField is a struct field with its Go type rendered for the output
// package.
type RenderedField struct {
	Name string
	Type string
}

// ModelAPI groups the per-model declarations. Query and Command are nil
// when the model has no operation of that category.
type ModelAPI struct {
	Domain          string
	Query           *Enumeration
	Command         *Enumeration
	QueryDispatch   *Dispatch
	CommandDispatch *Dispatch
	Effects         EffectMapping
}

// Enumeration is a sealed request interface with one struct per operation.
type Enumeration struct {
	Name     string
	Marker   string
	Domain   string
	Handle   string
	Category Category
	Variants []EnumVariant
}

// EnumVariant is one request struct.
type EnumVariant struct {
	Name      string // variant identifier, e.g. AddItem
	Type      string // struct type name, e.g. TodoModelCommandAddItem
	Operation string // handle method called by dispatch
	Fields    []RenderedField
}

// Dispatch is the process function of one enumeration.
type Dispatch struct {
	Func         string
	Enum         string
	Category     Category
	Accessor     string
	ResultType   string
	ErrorType    string
	ErrorVariant string
	NotPersisted string
	Mapper       string
	Arms         []DispatchArm
}

// IsCommand reports whether the dispatch tracks state changes.
func (d *Dispatch) IsCommand() bool {
	return d.Category == Command
}

// DispatchArm maps one request variant to a handle call.
type DispatchArm struct {
	Type string
	Call string
}

// EffectMapping converts a model's effects to aggregated effects.
type EffectMapping struct {
	Func   string
	Source string // qualified domain Effect interface
	Target string
	Arms   []EffectArm
}

// EffectArm maps one domain effect variant.
type EffectArm struct {
	Match  string // type switch case, e.g. todo.RenderItems or *todo.Alert
	Target string
	Copies []FieldCopy
}

// FieldCopy assigns one aggregated field from the matched domain value.
type FieldCopy struct {
	Name string
	Expr string
}
