package api

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Signals watches a signals directory for a "kill" file that stops running
// agent loops. Dropping the file from another terminal aborts a long crew
// run or trading cycle between model calls.
type Signals struct {
	dir string

	mu   sync.RWMutex
	stop bool

	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// SignalsDir returns the default signals directory under root.
func SignalsDir(root string) string {
	return filepath.Join(root, ".agentlabs", "signals")
}

// NewSignals creates the signals directory and starts watching it. If the
// watcher cannot be started, ShouldStop falls back to checking the file.
func NewSignals(dir string) (*Signals, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	s := &Signals{
		dir:  dir,
		done: make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return s, nil
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return s, nil
	}
	s.watcher = watcher

	go s.watch()

	return s, nil
}

func (s *Signals) watch() {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "kill" && event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				// Re-check under the lock so a racing Clear wins.
				s.mu.Lock()
				if _, err := os.Stat(s.killPath()); err == nil {
					s.stop = true
				}
				s.mu.Unlock()
			}
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *Signals) killPath() string {
	return filepath.Join(s.dir, "kill")
}

// ShouldStop returns true once a kill signal has been seen.
func (s *Signals) ShouldStop() bool {
	if _, err := os.Stat(s.killPath()); err == nil {
		s.mu.Lock()
		s.stop = true
		s.mu.Unlock()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stop
}

// SendKill creates the kill file.
func (s *Signals) SendKill() error {
	return os.WriteFile(s.killPath(), []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the kill file and resets state.
func (s *Signals) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop = false
	if err := os.Remove(s.killPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Dir returns the watched directory.
func (s *Signals) Dir() string {
	return s.dir
}

// Close stops the watcher.
func (s *Signals) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.watcher != nil {
			s.watcher.Close()
		}
	})
}
