package question

import (
	"strings"
	"sync"
)

// AnsweredSet tracks which questions have already triggered an answer
// within the session. Lookup is case-insensitive.
type AnsweredSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewAnsweredSet creates an empty set
func NewAnsweredSet() *AnsweredSet {
	return &AnsweredSet{seen: make(map[string]struct{})}
}

// MarkIfNew atomically tests and inserts a question.
// Returns true when the question had not been seen before.
func (s *AnsweredSet) MarkIfNew(q string) bool {
	key := strings.ToLower(q)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct questions seen
func (s *AnsweredSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Reset clears the set for a fresh session
func (s *AnsweredSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
}
