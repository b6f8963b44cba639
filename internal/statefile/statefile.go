// Package statefile provides the durable per-profile key/value store backing
// the device identifier and the cross-instance logout signal. It is the
// client-side analog of browser local storage: small, flat, last-write-wins.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const fileName = "state.json"

var errStoreClosed = errors.New("statefile: store closed")

// Store is a file-backed string map. All methods are safe for concurrent use
// within one process; cross-process consistency is last-write-wins, which is
// sufficient for the monotonic signal keys stored here.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
	closed bool
}

// Open loads (or creates) the store under dir. A corrupt or unreadable file
// is treated as empty rather than fatal; persistence degrades to best-effort.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("statefile: dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("statefile: create dir: %w", err)
	}
	s := &Store{
		path:   filepath.Join(dir, fileName),
		values: map[string]string{},
	}
	if data, err := os.ReadFile(s.path); err == nil {
		// Ignore decode errors: a damaged file must never block the client.
		_ = json.Unmarshal(data, &s.values)
	}
	return s, nil
}

// Get returns the stored value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores key=value and persists the file atomically (write to a
// temporary sibling, then rename).
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStoreClosed
	}
	s.values[key] = value
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("statefile: encode: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("statefile: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("statefile: rename: %w", err)
	}
	return nil
}

// Reload re-reads the backing file, merging in writes made by other
// processes of the same profile.
func (s *Store) Reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	fresh := map[string]string{}
	if json.Unmarshal(data, &fresh) != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range fresh {
		s.values[k] = v
	}
}

// Watch polls the backing file and emits the new value of key every time it
// changes, until ctx is cancelled. The initial value is not emitted; readers
// only care about changes, and only about the latest one.
func (s *Store) Watch(ctx context.Context, key string, interval time.Duration) <-chan string {
	out := make(chan string, 1)
	last, _ := s.Get(key)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			s.Reload()
			cur, ok := s.Get(key)
			if !ok || cur == last {
				continue
			}
			last = cur
			select {
			case out <- cur:
			default:
				// Drop when the reader lags: only the latest write matters.
			}
		}
	}()
	return out
}

// Close marks the store closed; subsequent Sets fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
