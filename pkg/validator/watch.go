package validator

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/geoskills/skillcheck/pkg/logger"
	"github.com/geoskills/skillcheck/pkg/report"
	"github.com/pkg/errors"
)

// DefaultDebounce is the quiet period after the last change before re-running
const DefaultDebounce = 500 * time.Millisecond

var ignoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// ResultFunc receives the outcome of each validation run in watch mode
type ResultFunc func(r *report.Report, err error)

// Watch validates the repository once and then again after every burst of
// filesystem changes below the root, until ctx is cancelled. Run errors are
// passed to fn and do not stop watching.
func (v *Validator) Watch(ctx context.Context, debounce time.Duration, fn ResultFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	if err := addTree(ctx, watcher, v.cfg.Root); err != nil {
		return err
	}

	filter := newEventFilter()
	if v.cfg.Output != "" {
		if err := filter.ignoreFile(v.cfg.Output); err != nil {
			return err
		}
	}

	fn(v.Run(ctx))

	changes := make(chan struct{})
	go debounceEvents(ctx, watcher, filter, changes, debounce)

	for {
		select {
		case <-changes:
			logger.G(ctx).Debug("change detected, re-running validation")
			fn(v.Run(ctx))
		case <-ctx.Done():
			return nil
		}
	}
}

// addTree registers root and every directory below it, skipping VCS and
// dependency directories
func addTree(ctx context.Context, watcher *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignoredDirs[d.Name()] {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return watcher.Add(path)
	})
	return errors.Wrapf(err, "failed to watch %s", root)
}

// eventFilter drops watcher events that must not trigger a run: anything in
// or naming an ignored directory, and files written by skillcheck itself
type eventFilter struct {
	files map[string]bool
}

func newEventFilter() *eventFilter {
	return &eventFilter{files: map[string]bool{}}
}

func (f *eventFilter) ignoreFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", path)
	}
	f.files[abs] = true
	return nil
}

func (f *eventFilter) skip(event fsnotify.Event) bool {
	if ignoredDirs[filepath.Base(event.Name)] || ignoredDirs[filepath.Base(filepath.Dir(event.Name))] {
		return true
	}
	if len(f.files) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && f.files[abs]
}

// debounceEvents coalesces watcher events into a single signal sent once no
// event has arrived for delay. New directories are added to the watcher as
// they appear.
func debounceEvents(ctx context.Context, watcher *fsnotify.Watcher, filter *eventFilter, out chan<- struct{}, delay time.Duration) {
	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filter.skip(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if err := addTree(ctx, watcher, event.Name); err != nil {
					logger.G(ctx).WithError(err).Debug("new path not watched")
				}
			}
			logger.G(ctx).WithField("file", event.Name).WithField("operation", event.Op.String()).Debug("file change detected")
			timer.Reset(delay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.G(ctx).WithError(err).Error("error watching files")
		case <-timer.C:
			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
