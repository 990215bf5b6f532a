// Package watcher monitors configured library roots for filesystem
// changes and triggers an incremental re-scan of the affected root,
// adapted from the reference engine's per-library fsnotify watcher to
// this engine's flat root-path model (§C.2).
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// OnRootDirty is invoked after a root's subtree settles following a
// create/remove event, debounced to avoid re-scanning mid-copy.
type OnRootDirty func(root string)

// Watcher recursively watches a fixed set of roots and debounces events
// before calling back once activity in a root quiets down.
type Watcher struct {
	roots    []string
	callback OnRootDirty
	fsw      *fsnotify.Watcher

	mu       sync.Mutex
	watched  map[string]string // directory → owning root
	debounce map[string]*time.Timer
	stop     chan struct{}
}

// New creates a Watcher over roots. It does not start watching until
// Start is called.
func New(roots []string, cb OnRootDirty) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		roots:    roots,
		callback: cb,
		fsw:      fsw,
		watched:  make(map[string]string),
		debounce: make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching every root and processing events in the
// background.
func (w *Watcher) Start() {
	go w.eventLoop()
	for _, root := range w.roots {
		if err := w.addRecursive(root, root); err != nil {
			log.Printf("watcher: error adding %s: %v", root, err)
		}
	}
	log.Printf("watcher: watching %d directories across %d roots", len(w.watched), len(w.roots))
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	close(w.stop)
	w.fsw.Close()
}

func (w *Watcher) addRecursive(dir, root string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return nil
			}
			w.mu.Lock()
			w.watched[path] = root
			w.mu.Unlock()
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part") {
		return
	}

	isCreate := event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
	isRemove := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !isCreate && !isRemove {
		return
	}

	if isCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			root := w.resolveRoot(event.Name)
			if root != "" {
				w.mu.Lock()
				w.fsw.Add(event.Name)
				w.watched[event.Name] = root
				w.mu.Unlock()
			}
			return
		}
	}

	if !supportedExtension(strings.ToLower(filepath.Ext(event.Name))) {
		return
	}

	root := w.resolveRoot(event.Name)
	if root == "" {
		return
	}

	w.mu.Lock()
	if timer, ok := w.debounce[root]; ok {
		timer.Stop()
	}
	w.debounce[root] = time.AfterFunc(2*time.Second, func() {
		w.mu.Lock()
		delete(w.debounce, root)
		w.mu.Unlock()
		w.callback(root)
	})
	w.mu.Unlock()
}

func (w *Watcher) resolveRoot(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir := filepath.Dir(path)
	for dir != "/" && dir != "." {
		if root, ok := w.watched[dir]; ok {
			return root
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

func supportedExtension(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".heic",
		".mp4", ".mkv", ".mov", ".avi", ".webm", ".m4v":
		return true
	default:
		return false
	}
}
