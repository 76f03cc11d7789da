package loader

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

type reloadResult struct {
	path string
	m    *state_machine.ControllerModel
	err  error
}

func TestWatcherReloadsChangedDefinition(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", "name: v1\nstates: [{name: a}]\n")

	l := NewLoader(BackendTypeYAML)
	if _, err := l.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	results := make(chan reloadResult, 16)
	served := make(chan struct{})
	go func() {
		w.Serve(l, func(path string, m *state_machine.ControllerModel, err error) {
			results <- reloadResult{path, m, err}
		})
		close(served)
	}()

	// ignored by the extension filter
	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "c.yaml", "name: v2\nstates: [{name: a}]\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-results:
			if r.path != path {
				t.Fatalf("reloaded %q, want %q", r.path, path)
			}
			if r.err != nil {
				// a partial write can surface as a decode error before the final event
				continue
			}
			if r.m.Name == "v2" {
				if l.Get(path).Name != "v2" {
					t.Fatal("cache not refreshed")
				}
				if err := w.Close(); err != nil {
					t.Fatalf("Close: %v", err)
				}
				<-served
				return
			}
		case <-deadline:
			w.Close()
			t.Fatal("timed out waiting for reload")
		}
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatal("Events should be closed")
	}
	if _, ok := <-w.Errors; ok {
		t.Fatal("Errors should be closed")
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	if _, err := NewWatcher("/definitely/not/here"); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestRearmDoesNotRefireDeliveredTimer(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{}, 4)
	onFire := func() {
		fired.Add(1)
		done <- struct{}{}
	}

	tm := time.AfterFunc(time.Millisecond, onFire)
	<-done
	if rearm(tm, time.Millisecond) {
		t.Fatal("rearm should report a timer that already fired")
	}
	time.Sleep(50 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("timer fired %d times, want 1", n)
	}

	waiting := time.AfterFunc(time.Hour, onFire)
	if !rearm(waiting, time.Millisecond) {
		t.Fatal("rearm should restart a pending timer")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("rearmed timer never fired")
	}
}
