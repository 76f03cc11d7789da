package loader

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow is how long a file must stay quiet before its change is reported.
const debounceWindow = 100 * time.Millisecond

// Watcher reports changes to definition and script files in a set of directories.
// Events and Errors are closed once the watcher shuts down.
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// ReloadFunc receives the outcome of reloading a changed definition.
type ReloadFunc func(path string, m *state_machine.ControllerModel, err error)

// NewWatcher starts watching the given directories.
//
// Parameters:
//   - dirs: the directories to watch (not recursive)
//
// Returns:
//   - *Watcher: the running watcher
//   - error: error if a directory cannot be watched
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close stops the watcher and waits for its goroutine to exit. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

// Serve reloads definitions through l as change events arrive and reports each result to onReload.
// A changed definition file is reloaded directly. A changed script reloads every cached
// definition file, since behaviours compile their scripts when a controller binds.
// Serve blocks until the watcher is closed.
//
// Parameters:
//   - l: the loader whose cache is refreshed
//   - onReload: called once per reloaded definition, may be nil
func (w *Watcher) Serve(l Loader, onReload ReloadFunc) {
	for path := range w.Events {
		var targets []string
		switch {
		case IsDefinitionFile(path):
			targets = []string{path}
		case isScriptFile(path):
			for _, key := range l.Keys() {
				if IsDefinitionFile(key) {
					targets = append(targets, key)
				}
			}
		}
		for _, target := range targets {
			m, err := l.Reload(target)
			if onReload != nil {
				onReload(target, m, err)
			}
		}
	}
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.Errors)
	defer close(w.Events)

	// Each file is reported once it has been quiet for debounceWindow.
	pending := make(map[string]*time.Timer)
	fire := make(chan string, 16)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsDefinitionFile(event.Name) && !isScriptFile(event.Name) {
				continue
			}
			if t, ok := pending[event.Name]; ok {
				rearm(t, debounceWindow)
				continue
			}
			name := event.Name
			pending[name] = time.AfterFunc(debounceWindow, func() {
				select {
				case fire <- name:
				case <-w.closeCh:
				}
			})
		case name := <-fire:
			delete(pending, name)
			select {
			case w.Events <- name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Unread errors are dropped so they never stall event delivery.
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}

// rearm restarts t for d unless it has already fired, in which case its delivery is in flight
// and the pending entry is cleared when it arrives.
func rearm(t *time.Timer, d time.Duration) bool {
	if !t.Stop() {
		return false
	}
	t.Reset(d)
	return true
}
