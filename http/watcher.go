package http

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"sgdreg/logger"
)

// ModelWatcher reloads a ModelHolder whenever its model file changes on disk.
type ModelWatcher struct {
	holder  *ModelHolder
	watcher *fsnotify.Watcher
	target  string
	log     *zap.Logger
	// reloaded receives the outcome of every reload attempt when non-nil.
	reloaded chan error
}

// WatchModel watches the directory holding the model file, so that files replaced by
// rename are still picked up.
func WatchModel(holder *ModelHolder, log *zap.Logger) (*ModelWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	target, err := filepath.Abs(holder.Path())
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	return &ModelWatcher{
		holder:  holder,
		watcher: w,
		target:  target,
		log:     logger.OrNop(log),
	}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *ModelWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			err := w.holder.Reload()
			if err != nil {
				w.log.Warn("model reload failed, keeping previous model", zap.String("path", w.target), zap.Error(err))
			} else {
				_, version := w.holder.Snapshot()
				w.log.Info("model reloaded", zap.String("path", w.target), zap.Uint64("version", version))
			}
			if w.reloaded != nil {
				select {
				case w.reloaded <- err:
				default:
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error("model watcher error", zap.Error(err))
		}
	}
}

func (w *ModelWatcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

func (w *ModelWatcher) Close() error {
	return w.watcher.Close()
}
