package cli

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/config"
	"github.com/roach88/cqrsgen/internal/engine"
	"github.com/roach88/cqrsgen/internal/source"
)

// ErrCodeGeneric is reported for errors without a more specific code.
const ErrCodeGeneric = "E001"

// ErrCodeWriteFailed is reported when the generated file cannot be written.
const ErrCodeWriteFailed = "E007"

// GenerateOptions holds the flags shared by generate, check, inspect and
// watch. Flags override the config file.
type GenerateOptions struct {
	*RootOptions
	Root      string
	Module    string
	Output    string
	Strict    bool
	Discovery string
}

func (o *GenerateOptions) bindFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Root, "root", ".", "project root model paths are relative to")
	cmd.Flags().StringVar(&o.Module, "module", "", "Go module path (default: read from <root>/go.mod)")
	cmd.Flags().StringVarP(&o.Output, "output", "o", "", "generated file (default: cqrs_gen.go next to the lifecycle file)")
	cmd.Flags().BoolVar(&o.Strict, "strict", false, "fail on methods that almost match an operation signature")
	cmd.Flags().StringVar(&o.Discovery, "discovery", engine.DiscoveryName, "tagged type discovery (name|directive)")
}

// settings merges the config file, positional arguments and flags.
// Arguments are the lifecycle file followed by the model files.
func (o *GenerateOptions) settings(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.Default()
	path := o.Config
	if path == "" && len(args) == 0 {
		path = config.Find(".")
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if len(args) > 0 {
		cfg.Lifecycle = args[0]
		cfg.Models = args[1:]
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.Root
	}
	if flags.Changed("module") {
		cfg.Module = o.Module
	}
	if flags.Changed("output") {
		cfg.Output = o.Output
	}
	if flags.Changed("strict") {
		cfg.Strict = o.Strict
	}
	if flags.Changed("discovery") {
		cfg.Discovery = o.Discovery
	}

	if cfg.Lifecycle == "" {
		return config.Config{}, &compiler.CompileError{
			Code:    compiler.ErrInvalidInvocation,
			Message: "no lifecycle file given; usage: cqrsgen generate <lifecycle.go> <model.go>... or a cqrsgen.cue config",
		}
	}
	return cfg, nil
}

// outputPath returns the generated file path on disk.
func outputPath(cfg config.Config) string {
	out := cfg.OutputPath()
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(cfg.Root, out)
}

// newEngine builds the engine and invocation for cfg.
func newEngine(cfg config.Config, logger *slog.Logger) (*engine.Engine, engine.Invocation, error) {
	resolver, err := source.NewFSResolver(cfg.Root, cfg.Module, cfg.SourceRoots)
	if err != nil {
		return nil, engine.Invocation{}, err
	}
	effect, failure, err := engine.LookupsFor(cfg.Discovery)
	if err != nil {
		return nil, engine.Invocation{}, err
	}
	models, err := cfg.ExpandModels()
	if err != nil {
		return nil, engine.Invocation{}, err
	}

	e := engine.New(resolver,
		engine.WithStrict(cfg.Strict),
		engine.WithLookups(effect, failure),
		engine.WithLogger(logger),
	)
	return e, engine.Invocation{Lifecycle: cfg.Lifecycle, Models: models}, nil
}

// newLogger returns the logger of one CLI run. Every record carries
// runID so that watch cycles can be told apart. In quiet text mode only
// errors are logged: warnings reach the user through OutputFormatter.Warn.
func newLogger(opts *RootOptions, w io.Writer, runID string) *slog.Logger {
	level := slog.LevelError
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Format == "json":
		level = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if opts.Format == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	return slog.New(handler).With("run_id", runID)
}

// warnNearMisses reports every near miss as a warning.
func warnNearMisses(formatter *OutputFormatter, nearMisses []compiler.NearMiss) {
	for _, nm := range nearMisses {
		formatter.Warn("skipped %s", nm)
	}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// errorCode maps an error to the code shown to the user.
func errorCode(err error) string {
	if code := compiler.CodeOf(err); code != "" {
		return code
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return cfgErr.Code
	}
	var notFound *source.ModuleNotFoundError
	if errors.As(err, &notFound) {
		return source.ErrCodeNotFound
	}
	return ErrCodeGeneric
}

// fail reports err through f and returns the matching exit error.
func fail(f *OutputFormatter, message string, err error) error {
	code := errorCode(err)
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, message, err)
}
