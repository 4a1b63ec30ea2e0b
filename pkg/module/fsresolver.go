package module

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/nzsl-lang/nzslc/pkg/ir"
)

// CompileFunc compiles the source file at path into a module, returning
// ok=false if compilation failed; errors are expected to already have been
// reported by the caller-supplied compiler, matching the Pass.Run
// discipline of not panicking on a malformed module. A concrete
// CompileFunc is supplied by pkg/compile (this package cannot import it
// directly without a cycle, since pkg/compile depends on this Resolver
// interface).
type CompileFunc func(path string) (*ir.Module, bool)

// FSResolver indexes a directory recursively, treating each file's stem
// (its name without the .nzsl extension) as the module name it exposes.
// Modules compile lazily on first Resolve rather than eagerly at startup.
type FSResolver struct {
	root    string
	compile CompileFunc
	ext     string

	mu      sync.Mutex
	paths   map[string]string // module name -> absolute file path
	modules map[string]*ir.Module
	watcher *fsnotify.Watcher

	listenersMu sync.Mutex
	listeners   []func(name string)
}

// NewFSResolver indexes every file with the given extension (e.g.
// ".nzsl") under root, recursively. Modules are compiled lazily on first
// Resolve, then cached until invalidated by a filesystem change.
func NewFSResolver(root, ext string, compile CompileFunc) (*FSResolver, error) {
	r := &FSResolver{
		root:    root,
		compile: compile,
		ext:     ext,
		paths:   make(map[string]string),
		modules: make(map[string]*ir.Module),
	}
	//
	if err := r.index(); err != nil {
		return nil, err
	}
	//
	return r, nil
}

func (r *FSResolver) index() error {
	return filepath.WalkDir(r.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		//
		if d.IsDir() || filepath.Ext(path) != r.ext {
			return nil
		}
		//
		name := strings.TrimSuffix(filepath.Base(path), r.ext)
		r.paths[name] = path
		//
		return nil
	})
}

// Resolve implements Resolver.
func (r *FSResolver) Resolve(name string) (*ir.Module, bool) {
	r.mu.Lock()
	mod, cached := r.modules[name]
	path, known := r.paths[name]
	r.mu.Unlock()
	//
	if cached {
		return mod, true
	}
	//
	if !known {
		return nil, false
	}
	//
	// mu is not held across compile: compiling a module resolves its own
	// imports through this same resolver.
	mod, ok := r.compile(path)
	if !ok {
		return nil, false
	}
	//
	r.mu.Lock()
	r.modules[name] = mod
	r.mu.Unlock()
	return mod, true
}

// Watch starts an fsnotify watch over the resolver's root directory,
// invalidating a module's cache entry (forcing recompilation on next
// Resolve) and firing any registered OnModuleUpdated callbacks whenever
// its backing file is written. Callers should call Close when done.
func (r *FSResolver) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	//
	if err := w.Add(r.root); err != nil {
		w.Close()
		return err
	}
	//
	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	//
	go r.watchLoop(w)
	//
	return nil
}

func (r *FSResolver) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			//
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			//
			r.handleFSEvent(ev.Name)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			//
			log.WithError(err).Warn("module: fsnotify watch error")
		}
	}
}

func (r *FSResolver) handleFSEvent(path string) {
	if filepath.Ext(path) != r.ext {
		return
	}
	//
	name := strings.TrimSuffix(filepath.Base(path), r.ext)
	//
	r.mu.Lock()
	r.paths[name] = path
	delete(r.modules, name)
	r.mu.Unlock()
	//
	r.listenersMu.Lock()
	cbs := append([]func(string){}, r.listeners...)
	r.listenersMu.Unlock()
	//
	for _, cb := range cbs {
		cb(name)
	}
}

// OnModuleUpdated implements UpdateNotifier.
func (r *FSResolver) OnModuleUpdated(cb func(name string)) (unregister func()) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	//
	r.listeners = append(r.listeners, cb)
	idx := len(r.listeners) - 1
	//
	return func() {
		r.listenersMu.Lock()
		defer r.listenersMu.Unlock()
		//
		if idx < len(r.listeners) {
			r.listeners[idx] = func(string) {}
		}
	}
}

// Close stops the filesystem watch, if one was started.
func (r *FSResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	//
	if r.watcher == nil {
		return nil
	}
	//
	err := r.watcher.Close()
	r.watcher = nil
	return err
}
