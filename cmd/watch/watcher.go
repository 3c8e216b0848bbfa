package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LegacyCodeHQ/pybundle/classify"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":          true,
	".venv":         true,
	"__pycache__":   true,
	".mypy_cache":   true,
	".pytest_cache": true,
	".tox":          true,
	".idea":         true,
	".vscode":       true,
	"node_modules":  true,
}

// watchAndRebuild watches the .py files under roots and calls rebuild once a
// burst of changes settles. Paths under an ignored directory never trigger a
// rebuild. Rebuilds run on the caller's goroutine, one at a time.
func watchAndRebuild(ctx context.Context, roots []string, ignored []string, rebuild func(context.Context), logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	adder := func(path string) error {
		if isIgnored(path, ignored) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	}
	for _, root := range roots {
		if err := addWatchDirsWithAdder(root, adder); err != nil {
			return fmt.Errorf("failed to watch directories: %w", err)
		}
	}

	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-debounce:
			debounce = nil
			rebuild(ctx)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				addIfDirectory(event.Name, adder)
			}

			if !isRelevantChange(event) || isIgnored(event.Name, ignored) {
				continue
			}
			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
			debounce = time.After(debounceInterval)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		}
	}
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Ext(event.Name) == ".py"
}

// isIgnored reports whether path is one of dirs or lies beneath one.
func isIgnored(path string, dirs []string) bool {
	for _, dir := range dirs {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// addWatchDirsWithAdder calls add for every directory under root. Hidden and
// skipped directories are pruned, and directories that vanish mid-walk are ignored.
func addWatchDirsWithAdder(root string, add func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") || classify.IsVirtualenv(path)) {
			return filepath.SkipDir
		}
		if err := add(path); err != nil {
			if errors.Is(err, filepath.SkipDir) {
				return filepath.SkipDir
			}
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		return nil
	})
}

func addIfDirectory(path string, add func(path string) error) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirsWithAdder(path, add)
	}
}
