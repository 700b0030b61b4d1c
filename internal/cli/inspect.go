package cli

import (
	"fmt"
	"go/types"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cqrsgen/internal/compiler"
	"github.com/roach88/cqrsgen/internal/engine"
	"github.com/roach88/cqrsgen/internal/ir"
)

// ModelReport describes what the analysis found in one model file.
type ModelReport struct {
	Path       string              `json:"path"`
	Model      string              `json:"model"`
	Handle     string              `json:"handle"`
	Effect     string              `json:"effect"`
	Variants   []string            `json:"variants"`
	Error      string              `json:"error"`
	Queries    []OperationReport   `json:"queries"`
	Commands   []OperationReport   `json:"commands"`
	NearMisses []compiler.NearMiss `json:"near_misses,omitempty"`
}

// OperationReport is one classified operation.
type OperationReport struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

// InspectReport is the JSON payload of inspect.
type InspectReport struct {
	Package   string        `json:"package"`
	Lifecycle string        `json:"lifecycle"`
	Models    []ModelReport `json:"models"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [lifecycle.go model.go...]",
		Short: "Show the operations and effects found in the models",
		Long: `Run the analysis without generating code and report, per model, the
capability types, the Effect variants, the classified queries and commands,
and the methods skipped as near misses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, cmd, args)
		},
	}

	opts.bindFlags(cmd)

	return cmd
}

func runInspect(opts *GenerateOptions, cmd *cobra.Command, args []string) error {
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
	e, inv, err := newEngine(cfg, newLogger(opts.RootOptions, cmd.ErrOrStderr(), formatter.RunID))
	if err != nil {
		return fail(formatter, "inspect failed", err)
	}
	a, err := e.Analyze(inv)
	if err != nil {
		return fail(formatter, "inspect failed", err)
	}

	report := buildReport(a)
	if opts.Format != "json" {
		writeReport(cmd.OutOrStdout(), report)
	}
	return formatter.Success(fmt.Sprintf("%d models in package %s", len(report.Models), report.Package), report)
}

func buildReport(a *engine.Analysis) InspectReport {
	report := InspectReport{Package: a.Package, Lifecycle: a.Lifecycle}
	for _, m := range a.Models {
		r := ModelReport{
			Path:     m.Module.Source.Path,
			Model:    m.Domain,
			Handle:   m.Handle,
			Effect:   m.Effect,
			Variants: make([]string, 0, len(m.Variants)),
			Error:    m.Error,
			Queries:  operationReports(m.Queries),
			Commands: operationReports(m.Commands),
		}
		for _, v := range m.Variants {
			r.Variants = append(r.Variants, v.Name)
		}
		for _, nm := range a.NearMisses {
			if nm.Path == r.Path {
				r.NearMisses = append(r.NearMisses, nm)
			}
		}
		report.Models = append(report.Models, r)
	}
	return report
}

func operationReports(ops []ir.ClassifiedOperation) []OperationReport {
	reports := make([]OperationReport, len(ops))
	for i, op := range ops {
		reports[i] = OperationReport{Name: op.Name, Signature: signature(op)}
	}
	return reports
}

// signature renders op's parameters as written in the model file.
func signature(op ir.ClassifiedOperation) string {
	params := make([]string, len(op.Args))
	for i, arg := range op.Args {
		typ := types.ExprString(arg.Type)
		if arg.Variadic {
			typ = "..." + typ
		}
		params[i] = arg.Name + " " + typ
	}
	return op.Name + "(" + strings.Join(params, ", ") + ")"
}

func writeReport(w io.Writer, report InspectReport) {
	for _, m := range report.Models {
		fmt.Fprintf(w, "%s\n", m.Path)
		fmt.Fprintf(w, "  model     %s (handle %s)\n", m.Model, m.Handle)
		fmt.Fprintf(w, "  effect    %s: %s\n", m.Effect, strings.Join(m.Variants, ", "))
		fmt.Fprintf(w, "  error     %s\n", m.Error)
		for _, q := range m.Queries {
			fmt.Fprintf(w, "  query     %s\n", q.Signature)
		}
		for _, c := range m.Commands {
			fmt.Fprintf(w, "  command   %s\n", c.Signature)
		}
		for _, nm := range m.NearMisses {
			fmt.Fprintf(w, "  skipped   %s: %s\n", nm.Operation, nm.Reason)
		}
	}
}
