package round

import "sync"

// Status remembers the last finished round for the operations API.
type Status struct {
	mu      sync.RWMutex
	last    Report
	outcome string
	rounds  int
}

// NewStatus returns an empty Status.
func NewStatus() *Status {
	return &Status{}
}

// Record stores report as the latest round.
func (s *Status) Record(report Report, outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = report
	s.outcome = outcome
	s.rounds++
}

// Last returns the latest report and its outcome. ok is false before the
// first round finished.
func (s *Status) Last() (report Report, outcome string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.outcome, s.rounds > 0
}

// Rounds counts the finished rounds.
func (s *Status) Rounds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds
}
