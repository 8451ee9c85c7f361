// Package devwatch implements the dev-mode file watcher of spec §4.9: it
// watches the main script file and signals a restart request, debounced,
// onto the runtime's main wakeup channel.
//
// Grounded on the fsnotify-based hot-reload watcher used by the
// yejune-go-react-ssr example (dev server watches a source directory and
// triggers a rebuild/reload), generalized from "watch a whole directory and
// rebuild" to the spec's narrower "watch the one main script file and
// request a restart".
package devwatch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a single file for writes and delivers debounced restart
// requests on Restarts. Editors frequently emit write+chmod+rename bursts
// for a single save, so events are coalesced within the debounce window
// before a single restart request is emitted.
type Watcher struct {
	w        *fsnotify.Watcher
	path     string
	debounce time.Duration

	Restarts chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// New starts watching the directory containing path (fsnotify watches
// directories, not individual files, so renames-over-the-target are caught)
// and filters events down to the target file.
func New(path string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		w:        w,
		path:     filepath.Clean(path),
		debounce: debounce,
		Restarts: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) run() {
	defer close(w.done)

	var pending *time.Timer
	var pendingC <-chan time.Time

	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !(ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				pendingC = pending.C
			} else {
				if !pending.Stop() {
					<-pending.C
				}
				pending.Reset(w.debounce)
			}
		case <-pendingC:
			pending = nil
			pendingC = nil
			select {
			case w.Restarts <- struct{}{}:
			default:
			}
		case _, ok := <-w.w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops watching and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.w.Close()
		<-w.done
	})
	return err
}
