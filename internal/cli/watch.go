package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/roach88/variantforge/internal/document"
	"github.com/roach88/variantforge/internal/logger"
)

// Reloader swaps in a freshly parsed document. *document.Memory implements
// it.
type Reloader interface {
	Reload(f *document.File) error
}

// documentWatcher reloads a document file into a host when it changes on
// disk. The parent directory is watched because editors often replace
// files instead of writing them in place.
type documentWatcher struct {
	path     string
	target   Reloader
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	onReload func(error)
}

func newDocumentWatcher(path string, target Reloader, log *zap.Logger) (*documentWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	return &documentWatcher{
		path:     abs,
		target:   target,
		watcher:  w,
		debounce: 200 * time.Millisecond,
		log:      logger.OrNop(log),
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is
// closed.
func (dw *documentWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != dw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			dw.log.Debug("document changed",
				zap.String(logger.FieldFile, event.Name),
				zap.String("op", event.Op.String()))
			dw.schedule()
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.log.Warn("document watcher error", zap.Error(err))
		}
	}
}

// schedule debounces bursts of events into one reload.
func (dw *documentWatcher) schedule() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.timer = time.AfterFunc(dw.debounce, func() {
		err := dw.reload()
		dw.mu.Lock()
		cb := dw.onReload
		dw.mu.Unlock()
		if cb != nil {
			cb(err)
		}
	})
}

func (dw *documentWatcher) reload() error {
	f, err := document.LoadFile(dw.path)
	if err != nil {
		dw.log.Error("document reload failed", zap.String(logger.FieldFile, dw.path), zap.Error(err))
		return err
	}
	if err := dw.target.Reload(f); err != nil {
		dw.log.Error("document reload rejected", zap.String(logger.FieldFile, dw.path), zap.Error(err))
		return err
	}
	dw.log.Info("document reloaded",
		zap.String(logger.FieldFile, dw.path),
		zap.String(logger.FieldSurface, f.Page))
	return nil
}

// Close stops watching.
func (dw *documentWatcher) Close() error {
	dw.mu.Lock()
	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.mu.Unlock()
	return dw.watcher.Close()
}
