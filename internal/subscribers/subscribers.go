// Package subscribers keeps the notification recipients and the monitor polling
// interval in a small TOML document. The CLI and the server each hold their own
// Store over the same file, so every read picks up changes another process saved.
package subscribers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	applog "courtwatch/internal/log"
)

const DefaultPollingInterval = 300 * time.Second

type settings struct {
	PollingInterval int      `toml:"polling_interval"` // seconds
	NotifyList      []string `toml:"notify_list"`
}

type document struct {
	Settings settings `toml:"settings"`
}

type Store struct {
	path string

	mu       sync.Mutex
	interval time.Duration
	notify   map[string]struct{}
	// stamp of the file the in-memory state was last read from or written to
	modTime time.Time
	size    int64
}

// Load reads the document at path. A missing file yields the defaults
// (300s interval, nobody subscribed) without creating it.
func Load(path string) (*Store, error) {
	s := &Store{path: path, interval: DefaultPollingInterval, notify: map[string]struct{}{}}
	if _, err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// reloadLocked re-reads the file when its modification time or size differ from
// what the store last saw. It reports whether the in-memory state was replaced.
func (s *Store) reloadLocked() (bool, error) {
	fi, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load subscribers %s: %w", s.path, err)
	}
	if fi.ModTime().Equal(s.modTime) && fi.Size() == s.size {
		return false, nil
	}

	var doc document
	if _, err := toml.DecodeFile(s.path, &doc); err != nil {
		return false, fmt.Errorf("load subscribers %s: %w", s.path, err)
	}
	s.interval = DefaultPollingInterval
	if doc.Settings.PollingInterval > 0 {
		s.interval = time.Duration(doc.Settings.PollingInterval) * time.Second
	}
	s.notify = make(map[string]struct{}, len(doc.Settings.NotifyList))
	for _, id := range doc.Settings.NotifyList {
		if id != "" {
			s.notify[id] = struct{}{}
		}
	}
	s.modTime, s.size = fi.ModTime(), fi.Size()
	return true, nil
}

// syncLocked picks up changes saved by another Store. A document that no longer
// parses is logged and the last good state is kept.
func (s *Store) syncLocked() {
	changed, err := s.reloadLocked()
	if err != nil {
		applog.Warn(nil, "subscribers.reload.fail", err, map[string]any{"path": s.path})
		return
	}
	if changed {
		applog.Debug(nil, "subscribers.reload", map[string]any{
			"path":             s.path,
			"subscribers":      len(s.notify),
			"polling_interval": s.interval.String(),
		})
	}
}

// Subscribers returns a sorted copy of the notify list.
func (s *Store) Subscribers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return s.sortedLocked()
}

func (s *Store) PollingInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return s.interval
}

// Add subscribes id and saves. Adding an existing id is a no-op that still succeeds.
func (s *Store) Add(id string) error {
	if id == "" {
		return errors.New("empty subscriber id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.reloadLocked(); err != nil {
		return err
	}
	if _, ok := s.notify[id]; ok {
		return nil
	}
	s.notify[id] = struct{}{}
	return s.saveLocked()
}

// Remove unsubscribes id and saves. Returns false if id was not subscribed.
func (s *Store) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.reloadLocked(); err != nil {
		return false, err
	}
	if _, ok := s.notify[id]; !ok {
		return false, nil
	}
	delete(s.notify, id)
	return true, s.saveLocked()
}

func (s *Store) SetPollingInterval(d time.Duration) error {
	if d < time.Second {
		return fmt.Errorf("polling interval must be at least 1s (got %s)", d)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.reloadLocked(); err != nil {
		return err
	}
	s.interval = d
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	doc := document{Settings: settings{
		PollingInterval: int(s.interval / time.Second),
		NotifyList:      s.sortedLocked(),
	}}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	if fi, err := os.Stat(s.path); err == nil {
		s.modTime, s.size = fi.ModTime(), fi.Size()
	}
	return nil
}

func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.notify))
	for id := range s.notify {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
