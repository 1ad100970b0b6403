// Package artifacts keeps the in-memory artifacts a browser session
// produces: an append-only console log and named screenshots. Both
// live for the process lifetime only; there is no eviction.
package artifacts

import (
	"fmt"
	"strings"
	"sync"
)

// ConsoleEntry is one console event captured from the page.
type ConsoleEntry struct {
	Level string
	Text  string
}

// Store is safe for concurrent use. Console events arrive from the
// page event goroutine while tool calls read and write screenshots.
type Store struct {
	mu    sync.RWMutex
	logs  []ConsoleEntry
	shots map[string][]byte
	order []string
}

func NewStore() *Store {
	return &Store{shots: make(map[string][]byte)}
}

// AppendLog records a console event in arrival order.
func (s *Store) AppendLog(entry ConsoleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// Logs returns a copy of all recorded console entries.
func (s *Store) Logs() []ConsoleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConsoleEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// ConsoleText renders the log buffer as one plain-text document, one
// "LEVEL: text" line per entry.
func (s *Store) ConsoleText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines := make([]string, len(s.logs))
	for i, entry := range s.logs {
		lines[i] = fmt.Sprintf("%s: %s", entry.Level, entry.Text)
	}
	return strings.Join(lines, "\n")
}

// PutScreenshot stores PNG bytes under a name, overwriting any prior
// value. The reported insertion order keeps the first position of a
// reused name. Returns true when the name is new.
func (s *Store) PutScreenshot(name string, png []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.shots[name]
	s.shots[name] = png
	if !exists {
		s.order = append(s.order, name)
	}
	return !exists
}

// Screenshot returns the stored bytes for a name.
func (s *Store) Screenshot(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	png, ok := s.shots[name]
	return png, ok
}

// ScreenshotNames lists stored names in insertion order.
func (s *Store) ScreenshotNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
