package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/emit"
	"github.com/roach88/cqrsgen/internal/ir"
	"github.com/roach88/cqrsgen/internal/source"
	"github.com/roach88/cqrsgen/internal/synth"
)

// Discovery modes for tagged types.
const (
	DiscoveryName      = "name"
	DiscoveryDirective = "directive"
)

// Engine generates CQRS APIs from model modules.
type Engine struct {
	resolver     source.Resolver
	effectLookup compiler.Lookup
	errorLookup  compiler.Lookup
	strict       bool
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrict turns near misses into errors.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithLookups replaces the tagged type lookups.
func WithLookups(effect, failure compiler.Lookup) Option {
	return func(e *Engine) {
		e.effectLookup = effect
		e.errorLookup = failure
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// LookupsFor returns the lookups of a discovery mode.
func LookupsFor(discovery string) (effect, failure compiler.Lookup, err error) {
	switch discovery {
	case "", DiscoveryName:
		effect, failure = compiler.NameLookups()
	case DiscoveryDirective:
		effect, failure = compiler.DirectiveLookups()
	default:
		return compiler.Lookup{}, compiler.Lookup{}, fmt.Errorf("unknown discovery mode %q (want %q or %q)",
			discovery, DiscoveryName, DiscoveryDirective)
	}
	return effect, failure, nil
}

// New creates an Engine reading modules through resolver.
func New(resolver source.Resolver, opts ...Option) *Engine {
	effect, failure := compiler.NameLookups()
	e := &Engine{
		resolver:     resolver,
		effectLookup: effect,
		errorLookup:  failure,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Invocation names the inputs of one generation pass. Paths are resolved by
// the engine's resolver.
type Invocation struct {
	Lifecycle string
	Models    []string
}

// Analysis is the result of the analysis stages.
type Analysis struct {
	Lifecycle  string   // lifecycle type name
	Package    string   // package of the lifecycle file
	ImportPath string   // import path of the lifecycle package
	Declared   []string // package-level names of the lifecycle file
	Models     []*ir.Model
	NearMisses []compiler.NearMiss
}

// Result is the outcome of a successful generation pass.
type Result struct {
	*Analysis
	Program *ir.Program
	Code    []byte
}

// Analyze runs every stage up to, but not including, synthesis.
func (e *Engine) Analyze(inv Invocation) (*Analysis, error) {
	if len(inv.Models) == 0 {
		return nil, &compiler.CompileError{
			Code:    compiler.ErrInvalidInvocation,
			Message: "at least one model file is required, e.g. cqrsgen generate app/lifecycle.go internal/todo/model.go",
		}
	}

	lifecycle, err := e.load(inv.Lifecycle)
	if err != nil {
		return nil, err
	}
	caps, err := compiler.ExtractCapabilities(lifecycle, []string{compiler.CapLifecycle})
	if err != nil {
		return nil, &compiler.CompileError{
			Code:    compiler.ErrInvalidInvocation,
			Path:    inv.Lifecycle,
			Message: fmt.Sprintf("lifecycle file must assert exactly one Lifecycle type, e.g. var _ Lifecycle = (*LifecycleImpl)(nil): %v", err),
		}
	}

	a := &Analysis{
		Lifecycle:  caps[compiler.CapLifecycle],
		Package:    lifecycle.Package(),
		ImportPath: lifecycle.Source.ImportPath,
		Declared:   synth.DeclaredNames(lifecycle),
	}
	e.logger.Debug("lifecycle resolved",
		"path", inv.Lifecycle,
		"type", a.Lifecycle,
		"package", a.Package,
	)

	for _, p := range inv.Models {
		model, nearMisses, err := e.analyzeModel(p)
		if err != nil {
			return nil, err
		}
		a.Models = append(a.Models, model)
		a.NearMisses = append(a.NearMisses, nearMisses...)
	}
	return a, nil
}

// Generate runs the complete pipeline and returns the generated file.
func (e *Engine) Generate(inv Invocation) (*Result, error) {
	a, err := e.Analyze(inv)
	if err != nil {
		return nil, err
	}

	p, err := synth.Aggregate(synth.Input{
		Package:       a.Package,
		ImportPath:    a.ImportPath,
		Lifecycle:     a.Lifecycle,
		Models:        a.Models,
		LifecyclePath: inv.Lifecycle,
		Declared:      a.Declared,
	})
	if err != nil {
		return nil, err
	}
	code, err := emit.Emit(p)
	if err != nil {
		return nil, err
	}

	e.logger.Info("generated",
		"package", p.Package,
		"summary", synth.Summary(p),
		"bytes", len(code),
	)
	return &Result{Analysis: a, Program: p, Code: code}, nil
}

func (e *Engine) load(p string) (*ir.ParsedModule, error) {
	text, err := e.resolver.Read(p)
	if err != nil {
		return nil, err
	}
	importPath, err := e.resolver.ImportPath(p)
	if err != nil {
		return nil, &compiler.CompileError{Code: compiler.ErrInvalidInvocation, Path: p, Message: err.Error()}
	}
	return compiler.ParseModule(ir.SourceModule{Path: p, ImportPath: importPath, Text: text})
}

func (e *Engine) analyzeModel(p string) (*ir.Model, []compiler.NearMiss, error) {
	mod, err := e.load(p)
	if err != nil {
		return nil, nil, err
	}

	caps, err := compiler.ExtractCapabilities(mod, []string{compiler.CapModel, compiler.CapHandle})
	if err != nil {
		return nil, nil, err
	}
	desc, err := compiler.ExtractTaggedTypes(ir.ModelDescriptor{
		Module: mod,
		Domain: caps[compiler.CapModel],
		Handle: caps[compiler.CapHandle],
	}, e.effectLookup, e.errorLookup)
	if err != nil {
		return nil, nil, err
	}
	if err := compiler.Join(compiler.Validate(desc)); err != nil {
		return nil, nil, err
	}

	c, err := compiler.Classify(desc)
	if err != nil {
		return nil, nil, err
	}
	for _, nm := range c.NearMisses {
		e.logger.Warn("method looks like an operation but was skipped",
			"path", nm.Path,
			"method", nm.Operation,
			"reason", nm.Reason,
		)
	}
	if e.strict && len(c.NearMisses) > 0 {
		nm := c.NearMisses[0]
		return nil, nil, &compiler.CompileError{
			Code:    compiler.ErrNearMiss,
			Path:    nm.Path,
			Pos:     nm.Pos,
			Message: fmt.Sprintf("%s %s (%d near misses in total)", nm.Operation, nm.Reason, len(c.NearMisses)),
		}
	}

	e.logger.Debug("model analyzed",
		"path", p,
		"model", desc.Domain,
		"handle", desc.Handle,
		"effect", desc.Effect,
		"error", desc.Error,
		"queries", len(c.Queries),
		"commands", len(c.Commands),
	)
	return &ir.Model{EffectDescriptor: *desc, Queries: c.Queries, Commands: c.Commands}, c.NearMisses, nil
}
