// Package watch reloads mesh files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/meshlib/internal/logger"
	"github.com/Faultbox/meshlib/pkg/mesh"
)

// Loader provides meshes for watched files. Load serves the first publish
// of a file and Reload every change after it.
type Loader interface {
	Load(path string) (*mesh.Mesh, error)
	Reload(path string) (*mesh.Mesh, error)
}

// Update is the result of loading one watched file.
type Update struct {
	Path string
	Mesh *mesh.Mesh
	Err  error
}

// Watcher loads a set of mesh files once and again after every change.
// Published meshes are never modified.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	loader   Loader
	debounce time.Duration

	// mu guards files, dirs and running until Run starts. Afterwards the
	// maps are read only.
	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]bool
	running bool

	updates chan Update
}

// New creates a watcher. Bursts of events on one file within debounce are
// folded into a single reload.
func New(loader Loader, debounce time.Duration) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &Watcher{
		fsnotify: fsWatch,
		loader:   loader,
		debounce: debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		updates:  make(chan Update, 16),
	}, nil
}

// Add registers a mesh file. The parent directory is watched so that files
// replaced by rename are picked up again. Add must be called before Run.
func (w *Watcher) Add(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}

	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.fsnotify.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Updates returns the channel of load results. It is closed when Run returns.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Run loads every registered file, then reloads files as they change until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	defer close(w.updates)
	defer w.fsnotify.Close()

	for path := range w.files {
		if !w.publish(ctx, path, w.loader.Load) {
			return nil
		}
	}

	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var timerC <-chan time.Time

	flush := func() bool {
		for path := range pending {
			delete(pending, path)
			if !w.publish(ctx, path, w.loader.Reload) {
				return false
			}
		}
		return true
	}

	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return nil
			}
			if !w.files[e.Name] {
				continue
			}
			if e.Op&fsnotify.Remove != 0 {
				logger.Warn("watched mesh removed", zap.String("path", e.Name))
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pending[e.Name] = true
			if w.debounce <= 0 {
				if !flush() {
					return nil
				}
				continue
			}
			timer.Reset(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if !flush() {
				return nil
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return nil
			}
			logger.Error("file watcher error", zap.Error(err))

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}

// publish loads path and sends the result. It returns false once ctx is done.
func (w *Watcher) publish(ctx context.Context, path string, load func(string) (*mesh.Mesh, error)) bool {
	m, err := load(path)
	if err != nil {
		logger.Warn("mesh reload failed", zap.String("path", path), zap.Error(err))
	} else {
		logger.Debug("mesh reloaded", zap.String("path", path), zap.Stringer("id", m.ID))
	}

	select {
	case w.updates <- Update{Path: path, Mesh: m, Err: err}:
		return true
	case <-ctx.Done():
		return false
	}
}
