package cli

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/config"
	"github.com/roach88/cqrsgen/internal/engine"
	"github.com/roach88/cqrsgen/internal/synth"
)

// GenerateCommandOptions holds flags for the generate command.
type GenerateCommandOptions struct {
	GenerateOptions
	DryRun bool
}

// GenerateSummary is the JSON payload of a successful generate.
type GenerateSummary struct {
	Output     string              `json:"output"`
	Package    string              `json:"package"`
	Models     []string            `json:"models"`
	Queries    int                 `json:"queries"`
	Commands   int                 `json:"commands"`
	Effects    int                 `json:"effects"`
	Written    bool                `json:"written"`
	NearMisses []compiler.NearMiss `json:"near_misses,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateCommandOptions{GenerateOptions: GenerateOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "generate [lifecycle.go model.go...]",
		Short: "Generate the CQRS API of a set of models",
		Long: `Generate query and command enumerations, their dispatch, and the
aggregated Effect and ProcessingError types for the given models.

The first argument is the file asserting the Lifecycle type; the generated
file is written next to it in the same package. Without arguments the
lifecycle and models are read from cqrsgen.cue or cqrsgen.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd, args)
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the generated code instead of writing it")

	return cmd
}

func runGenerate(opts *GenerateCommandOptions, cmd *cobra.Command, args []string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		RunID:     newRunID(),
	}

	cfg, err := opts.settings(cmd, args)
	if err != nil {
		return fail(formatter, "invalid invocation", err)
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), formatter.RunID)

	res, err := generate(cfg, logger)
	if err != nil {
		return fail(formatter, "generation failed", err)
	}
	warnNearMisses(formatter, res.NearMisses)

	if opts.DryRun {
		_, err := cmd.OutOrStdout().Write(res.Code)
		return err
	}

	path := outputPath(cfg)
	written, err := writeIfChanged(path, res.Code)
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "write failed", err)
	}

	formatter.VerboseLog("Models: %v", modelPaths(res))

	message := fmt.Sprintf("Generated %s (%s)", path, synth.Summary(res.Program))
	if !written {
		message = fmt.Sprintf("%s is up to date (%s)", path, synth.Summary(res.Program))
	}
	return formatter.Success(message, summarize(path, res, written))
}

// generate runs the engine for cfg.
func generate(cfg config.Config, logger *slog.Logger) (*engine.Result, error) {
	e, inv, err := newEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return e.Generate(inv)
}

// writeIfChanged writes code to path unless the file already holds it.
// Reports whether the file was written.
func writeIfChanged(path string, code []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, code) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, code, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

func modelPaths(res *engine.Result) []string {
	paths := make([]string, len(res.Models))
	for i, m := range res.Models {
		paths[i] = m.Module.Source.Path
	}
	return paths
}

func summarize(path string, res *engine.Result, written bool) GenerateSummary {
	s := GenerateSummary{
		Output:     path,
		Package:    res.Program.Package,
		Models:     modelPaths(res),
		Effects:    len(res.Program.Effects.Variants),
		Written:    written,
		NearMisses: res.NearMisses,
	}
	for _, m := range res.Models {
		s.Queries += len(m.Queries)
		s.Commands += len(m.Commands)
	}
	return s
}
