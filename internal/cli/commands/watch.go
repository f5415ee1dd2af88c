package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "watch <collection>",
		Short: "Rerun a script whenever the collection or script changes",
		Long: `Run a Starlark script over a collection, then run it again every time
a file in the collection's directory or the script itself changes.

Changes are debounced (watch.debounce_ms, default 200). Press Ctrl+C to stop.`,
		Example: `  eachof watch pages --script scripts/check.star`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Script, "script", "s", "", "Starlark script defining each(view, key)")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func runWatch(cmd *cobra.Command, name string, opts *RunOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if _, err := cmdCtx.Project.Host(name); err != nil {
		return err
	}

	rerun := func(reason string) {
		if reason != "" {
			cmdCtx.Logger.Info("change detected", "file", reason)
			if err := cmdCtx.Reload(cmd); err != nil {
				cmdCtx.Renderer.Error(err.Error())
				return
			}
		}
		if err := executeRun(ctx, cmdCtx, name, opts.Script); err != nil {
			cmdCtx.Logger.Debug("run finished with error", "error", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := cmdCtx.Project.Dir(name)
	if err := watchDir(watcher, dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	script, _ := filepath.Abs(opts.Script)
	if err := watcher.Add(filepath.Dir(script)); err != nil {
		return fmt.Errorf("failed to watch script: %w", err)
	}

	rerun("")

	cmdCtx.Renderer.Warn(fmt.Sprintf("watching %s and %s, press Ctrl+C to stop", dir, opts.Script))

	relevant := func(path string) bool {
		abs, _ := filepath.Abs(path)
		return abs == script || strings.HasPrefix(abs, dir+string(filepath.Separator))
	}
	debounce := time.Duration(cmdCtx.Cfg.Watch.DebounceMS) * time.Millisecond

	watchLoop(ctx, watcher.Events, watcher.Errors, debounce, relevant, func(event fsnotify.Event) {
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				_ = watchDir(watcher, event.Name)
			}
		}
	}, rerun, cmdCtx.Logger)
	return nil
}

// watchDir recursively adds a directory to the watcher, skipping hidden
// directories.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchLoop calls rerun once changes have been quiet for debounce. seen is
// called for every relevant event before debouncing. rerun always runs on
// the loop goroutine, so runs never overlap.
func watchLoop(
	ctx context.Context,
	events <-chan fsnotify.Event,
	errs <-chan error,
	debounce time.Duration,
	relevant func(string) bool,
	seen func(fsnotify.Event),
	rerun func(string),
	logger *slog.Logger,
) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !relevant(event.Name) {
				continue
			}
			if seen != nil {
				seen(event)
			}
			pending = event.Name
			timer.Reset(debounce)

		case <-timer.C:
			if pending != "" {
				reason := pending
				pending = ""
				rerun(reason)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
