package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CheckResult is the JSON payload of check.
type CheckResult struct {
	Output  string `json:"output"`
	Current bool   `json:"current"`
	Reason  string `json:"reason,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [lifecycle.go model.go...]",
		Short: "Verify the generated file is up to date",
		Long: `Generate in memory and compare with the file on disk.

Exits with code 1 when the file is missing or differs, so the command can
guard CI pipelines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, cmd, args)
		},
	}

	opts.bindFlags(cmd)

	return cmd
}

func runCheck(opts *GenerateOptions, cmd *cobra.Command, args []string) error {
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
	res, err := generate(cfg, newLogger(opts.RootOptions, cmd.ErrOrStderr(), formatter.RunID))
	if err != nil {
		return fail(formatter, "generation failed", err)
	}
	warnNearMisses(formatter, res.NearMisses)

	path := outputPath(cfg)
	result := CheckResult{Output: path, Current: true}
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Current, result.Reason = false, "file does not exist"
	case err != nil:
		return fail(formatter, "check failed", err)
	case !bytes.Equal(existing, res.Code):
		result.Current, result.Reason = false, "file differs from generated code"
	}

	if !result.Current {
		_ = formatter.Failure(fmt.Sprintf("%s is stale: %s; run cqrsgen generate", path, result.Reason), result)
		return NewExitError(ExitFailure, fmt.Sprintf("%s is stale", path))
	}
	return formatter.Success(fmt.Sprintf("%s is up to date", path), result)
}
