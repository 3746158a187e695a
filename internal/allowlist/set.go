package allowlist

import (
	"strings"
	"sync"
)

// Set is the editable, ordered collection of raw allowlist entries
type Set struct {
	mu      sync.RWMutex
	entries []string
}

// NewSet creates a set seeded with entries, dropping blanks and duplicates
func NewSet(entries ...string) *Set {
	s := &Set{}
	for _, entry := range entries {
		s.Add(entry)
	}
	return s
}

// Add appends entry unless it is blank or already present
func (s *Set) Add(entry string) bool {
	trimmed := strings.TrimSpace(entry)
	if trimmed == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.entries, trimmed) >= 0 {
		return false
	}
	s.entries = append(s.entries, trimmed)
	return true
}

// Remove deletes entry, reporting whether it was present
func (s *Set) Remove(entry string) bool {
	trimmed := strings.TrimSpace(entry)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.entries, trimmed)
	if idx < 0 {
		return false
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	return true
}

// Entries returns a snapshot copy
func (s *Set) Entries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset replaces the contents with entries
func (s *Set) Reset(entries ...string) {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	for _, entry := range entries {
		s.Add(entry)
	}
}

// Len returns the number of entries
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func indexOf(items []string, target string) int {
	for i, item := range items {
		if strings.EqualFold(item, target) {
			return i
		}
	}
	return -1
}
