package viewer

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	trylock "github.com/subchen/go-trylock/v2"
)

// MemStore is a Store backed by a plain map. It is the default store and the
// one tests use; every operation is synchronous.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

// Get implements Store.
func (s *MemStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set implements Store.
func (s *MemStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// FileStore persists preferences as a flat JSON object on disk. Set is
// non-blocking: values land in memory immediately and a background flusher
// writes them out with exponential backoff on transient failures, so store
// latency never reaches the render loop. The backing file is watched and
// reloaded when edited externally.
type FileStore struct {
	path string

	mu     sync.RWMutex
	values map[string]string

	dirty     chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	flushMu   trylock.TryLocker
	closeOnce sync.Once
	closeErr  error

	watcher *fsnotify.Watcher
}

// NewFileStore opens (or prepares to create) the store at path. A corrupt or
// missing file starts the store empty; that is recovery, not an error.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		values:  make(map[string]string),
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
		flushMu: trylock.New(),
	}
	s.load()
	if w, err := fsnotify.NewWatcher(); err == nil {
		if err := w.Add(filepath.Dir(path)); err == nil {
			s.watcher = w
			s.wg.Add(1)
			go s.watch()
		} else {
			_ = w.Close()
		}
	}
	s.wg.Add(1)
	go s.flusher()
	return s, nil
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set implements Store. The durable write happens asynchronously.
func (s *FileStore) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	select {
	case s.dirty <- struct{}{}:
	default: // a flush is already pending
	}
}

// Flushing reports whether a durable write is currently in progress.
func (s *FileStore) Flushing() bool {
	if s.flushMu.TryLock(nil) {
		s.flushMu.Unlock()
		return false
	}
	return true
}

// Flush writes the current values to disk synchronously.
func (s *FileStore) Flush() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.write()
}

// Close stops the flusher and watcher after a final flush. Safe to call more
// than once; later calls return the first result.
func (s *FileStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
		s.wg.Wait()
		s.closeErr = s.Flush()
	})
	return s.closeErr
}

func (s *FileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		log.Println("[Viewer] ignoring corrupt preference file:", err)
		return
	}
	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
}

func (s *FileStore) write() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.values, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) flusher() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
			s.flushMu.Lock()
			err := backoff.Retry(s.write, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
			s.flushMu.Unlock()
			if err != nil {
				log.Println("[Viewer] dropping preference flush:", err)
			}
		}
	}
}

// watch reloads the file when something else writes it, so externally edited
// preferences show up live. Writes made by the flusher itself also trigger a
// reload; that is a harmless no-op since memory already matches.
func (s *FileStore) watch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Skip the reload while local changes are still unflushed so a
			// stale file never clobbers newer in-memory values.
			select {
			case <-s.dirty:
				select {
				case s.dirty <- struct{}{}:
				default:
				}
			default:
				s.load()
			}
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
