package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailqa/internal/connectors/maildir"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

var (
	watchSession  string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch DIR",
	Short: "Keep a session in sync with a directory of .eml files",
	Long: `Indexes every .eml file under DIR, then rebuilds the session whenever a file
is created, changed, renamed or removed. Bursts of changes are coalesced into
one rebuild. Every rebuild replaces the whole session.

Runs until interrupted.

Example:
  mailqa watch ~/Mail/export --session export`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSession, "session", "s", domain.DefaultSession, "session to rebuild")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", DefaultDebounce, "quiet period before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, err := resolveIngest("")
	if err != nil {
		return err
	}
	src := maildir.New(args[0])

	rebuild := func(ctx context.Context) error {
		items, err := src.FetchAll(ctx)
		if err != nil {
			return err
		}
		_, report, err := svc.IngestItems(ctx, watchSession, items)
		if err != nil {
			return err
		}
		printReport(cmd, report)
		return nil
	}

	if err := rebuild(cmd.Context()); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, args[0]); err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])

	return watchLoop(cmd.Context(), watcher, watchDebounce, func(ctx context.Context) {
		if err := rebuild(ctx); err != nil && ctx.Err() == nil {
			cmd.PrintErrln("Rebuild failed: " + describeError(err))
		}
	})
}

// watchTree adds dir and every non-hidden directory below it.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// watchLoop calls rebuild once changes have been quiet for debounce.
// It returns nil when ctx is done.
func watchLoop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, rebuild func(context.Context)) error {
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			// New subdirectories must be watched too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchTree(w, event.Name); err != nil {
						logger.Warn("%v", err)
					}
				}
			}
			logger.Debug("change: %s", event)
			timer.Reset(debounce)

		case <-timer.C:
			rebuild(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// relevant reports whether event can change the set of messages.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return true
	}
	return strings.EqualFold(filepath.Ext(base), maildir.Extension)
}
