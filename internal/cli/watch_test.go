package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roach88/cqrsgen/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startLoop runs watchLoop in the background and returns a function that
// stops it and reports its error.
func startLoop(t *testing.T, events chan fsnotify.Event, errs chan error, files map[string]bool, regenerate func()) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, events, errs, files, 20*time.Millisecond, regenerate, discardLogger())
	}()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(time.Second):
			return errors.New("watch loop did not stop")
		}
	}
}

func TestWatchLoopDebounces(t *testing.T) {
	defer goleak.VerifyNone(t)

	model, err := filepath.Abs(filepath.Join("testproject", "model.go"))
	require.NoError(t, err)
	files := map[string]bool{model: true}

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	var calls atomic.Int32
	stop := startLoop(t, events, errs, files, func() { calls.Add(1) })

	for range 3 {
		events <- fsnotify.Event{Name: model, Op: fsnotify.Write}
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	events <- fsnotify.Event{Name: model, Op: fsnotify.Rename}
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, stop())
	assert.Equal(t, int32(2), calls.Load())
}

func TestWatchLoopIgnoresUnrelatedEvents(t *testing.T) {
	defer goleak.VerifyNone(t)

	model, err := filepath.Abs(filepath.Join("testproject", "model.go"))
	require.NoError(t, err)
	files := map[string]bool{model: true}

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	var calls atomic.Int32
	stop := startLoop(t, events, errs, files, func() { calls.Add(1) })

	events <- fsnotify.Event{Name: model, Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: filepath.Join(filepath.Dir(model), "cqrs_gen.go"), Op: fsnotify.Write}
	errs <- errors.New("queue overflow")
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, stop())
	assert.Zero(t, calls.Load())
}

func TestWatchLoopStopsOnClosedChannel(t *testing.T) {
	defer goleak.VerifyNone(t)

	events := make(chan fsnotify.Event)
	close(events)
	err := watchLoop(context.Background(), events, make(chan error), nil, time.Second, func() {}, discardLogger())
	assert.NoError(t, err)
}

func TestWatchedFiles(t *testing.T) {
	root := writeProject(t)
	writeFile(t, root, "internal/notes/model.go", "package notes\n")

	cfg := config.Config{Root: root, Lifecycle: "app/lifecycle.go", Models: []string{"internal/**/model.go"}}
	files, err := watchedFiles(cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		filepath.Join(root, "app", "lifecycle.go"):           true,
		filepath.Join(root, "internal", "notes", "model.go"): true,
		filepath.Join(root, "internal", "todo", "model.go"):  true,
	}, files)
	assert.Equal(t, []string{
		filepath.Join(root, "app"),
		filepath.Join(root, "internal", "notes"),
		filepath.Join(root, "internal", "todo"),
	}, watchedDirs(files))
}
