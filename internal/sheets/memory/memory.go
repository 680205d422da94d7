package memory

import (
	"context"
	"fmt"
	"sync"

	"eventbudget/internal/core"
	"eventbudget/internal/sheets"
)

// Store keeps exported summaries in process.
type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	writes int
}

var _ sheets.SummaryWriter = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[string][][]any)}
}

// WriteSummary replaces the rows stored for the event.
func (s *Store) WriteSummary(_ context.Context, ownerID string, summary core.EventSummary) (string, error) {
	if summary.Event.ID == "" {
		return "", fmt.Errorf("summary has no event id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ownerID + "/" + summary.Event.ID
	s.sheets[key] = sheets.Rows(summary)
	s.writes++
	return "mem:" + key, nil
}

// Rows returns the last rows written for the event, or nil.
func (s *Store) Rows(ownerID, eventID string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheets[ownerID+"/"+eventID]
}

// Writes returns how many summaries were written.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
