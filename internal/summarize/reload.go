package summarize

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/contextview/internal/app"
	"github.com/dshills/contextview/internal/engine/patch"
)

// ErrReloaderClosed indicates the reloader has been closed.
var ErrReloaderClosed = errors.New("reloader closed")

// Reloader is a Summarizer backed by a Lua script file that is recompiled
// whenever the file changes. A script that fails to compile is logged and
// the previous version stays in use.
type Reloader struct {
	path string
	opts []LuaOption

	current    atomic.Pointer[LuaSummarizer]
	generation atomic.Uint64

	watcher *fsnotify.Watcher
	logger  *app.Logger

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// NewReloader loads the script at path and starts watching it.
func NewReloader(path string, logger *app.Logger, opts ...LuaOption) (*Reloader, error) {
	if logger == nil {
		logger = app.NewNopLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	r := &Reloader{
		path:    abs,
		opts:    opts,
		logger:  logger.WithComponent("summarizer").WithField("script", abs),
		closeCh: make(chan struct{}),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors often save by renaming over the file.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	r.watcher = w

	r.wg.Add(1)
	go r.loop()
	return r, nil
}

// Reload recompiles the script now.
func (r *Reloader) Reload() error {
	s, err := LoadLuaSummarizer(r.path, r.opts...)
	if err != nil {
		return err
	}
	r.current.Store(s)
	r.generation.Add(1)
	return nil
}

// Generation counts successful loads, starting at 1.
func (r *Reloader) Generation() uint64 {
	return r.generation.Load()
}

// Summarize implements Summarizer using the latest compiled script.
func (r *Reloader) Summarize(ctx context.Context, text string) (patch.Patch, error) {
	select {
	case <-r.closeCh:
		return patch.Patch{}, ErrReloaderClosed
	default:
	}
	return r.current.Load().Summarize(ctx, text)
}

// Close stops watching the script.
func (r *Reloader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closeCh)
		err = r.watcher.Close()
		r.wg.Wait()
	})
	return err
}

func (r *Reloader) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.closeCh:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := r.Reload(); err != nil {
				r.logger.Warn("keeping previous script: %v", err)
				continue
			}
			r.logger.Info("reloaded summarizer script (generation %d)", r.Generation())
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("watch error: %v", err)
		}
	}
}
