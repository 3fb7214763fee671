package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher signals when the config file changes on disk. The signal channel
// only pokes the event loop; the actual reload happens there, keeping all
// config application on the single mutator thread.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	changed chan struct{}
	done    chan struct{}
	log     *logrus.Entry
}

// NewWatcher watches path's directory for writes to path. Watching the
// directory rather than the file survives editors that replace the file
// on save.
func NewWatcher(path string, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
		log:     log,
	}
	go w.run()
	return w, nil
}

// Changed returns the notification channel. At most one signal is pending
// at a time; coalesced writes produce one reload.
func (w *Watcher) Changed() <-chan struct{} { return w.changed }

// run forwards relevant fsnotify events into the signal channel.
func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warnf("config watcher: %v", err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
