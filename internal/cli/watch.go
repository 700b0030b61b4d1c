package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/cqrsgen/internal/config"
	"github.com/roach88/cqrsgen/internal/synth"
)

// DefaultDebounce is the quiet period after the last change before watch
// regenerates.
const DefaultDebounce = 300 * time.Millisecond

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	GenerateOptions
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{GenerateOptions: GenerateOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "watch [lifecycle.go model.go...]",
		Short: "Regenerate whenever the lifecycle or a model file changes",
		Long: `Generate once, then watch the lifecycle and model files and regenerate
after each burst of changes. Generation errors are reported and watching
continues. Stop with Ctrl-C.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd, args)
		},
	}

	opts.bindFlags(cmd)
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", DefaultDebounce, "quiet period before regenerating")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command, args []string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := opts.settings(cmd, args)
	if err != nil {
		return fail(formatter, "invalid invocation", err)
	}
	files, err := watchedFiles(cfg)
	if err != nil {
		return fail(formatter, "watch failed", err)
	}

	regenerate := func() {
		formatter.RunID = newRunID()
		logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), formatter.RunID)
		res, err := generate(cfg, logger)
		if err != nil {
			_ = formatter.Error(errorCode(err), err.Error(), nil)
			return
		}
		path := outputPath(cfg)
		written, err := writeIfChanged(path, res.Code)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return
		}
		if written {
			warnNearMisses(formatter, res.NearMisses)
			_ = formatter.Success(fmt.Sprintf("Generated %s (%s)", path, synth.Summary(res.Program)), summarize(path, res, written))
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fail(formatter, "watch failed", err)
	}
	defer watcher.Close()

	for _, dir := range watchedDirs(files) {
		if err := watcher.Add(dir); err != nil {
			return fail(formatter, "watch failed", fmt.Errorf("watch %s: %w", dir, err))
		}
	}

	regenerate()
	if opts.Format != "json" {
		fmt.Fprintf(formatter.GetErrWriter(), "Watching %d files, press Ctrl-C to stop\n", len(files))
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr(), newRunID())
	return watchLoop(cmd.Context(), watcher.Events, watcher.Errors, files, opts.Debounce, regenerate, logger)
}

// watchedFiles returns the cleaned absolute paths of the lifecycle and
// model files.
func watchedFiles(cfg config.Config) (map[string]bool, error) {
	models, err := cfg.ExpandModels()
	if err != nil {
		return nil, err
	}
	files := make(map[string]bool, len(models)+1)
	for _, p := range append([]string{cfg.Lifecycle}, models...) {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cfg.Root, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files[abs] = true
	}
	return files, nil
}

// watchedDirs returns the sorted directories holding files. Directories
// are watched instead of files so that editors replacing a file on save
// do not end the watch.
func watchedDirs(files map[string]bool) []string {
	var dirs []string
	for f := range files {
		dir := filepath.Dir(f)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

// watchLoop calls regenerate once no event for a watched file has arrived
// for the debounce period. It returns when ctx is done or a channel closes.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	files map[string]bool, debounce time.Duration, regenerate func(), logger *slog.Logger) error {
	tick := debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !files[name] {
				continue
			}
			logger.Debug("file changed", "path", name, "op", event.Op.String())
			pending = time.Now()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			if !pending.IsZero() && now.Sub(pending) >= debounce {
				pending = time.Time{}
				regenerate()
			}
		}
	}
}
