package cache

import (
	"sync"
	"time"

	"eventbudget/internal/core"
)

// Summaries caches event summaries by owner and event. Entries are
// invalidated after every committed mutation of the event.
//
// A summary loaded from the store is stored with the generation read before
// the load. If any invalidation happened in between, Put drops it, so a
// read that raced a commit never replaces the invalidated entry.
type Summaries struct {
	lru *LRUCache[core.EventSummary]

	mu  sync.Mutex
	gen uint64
}

func NewSummaries(maxSize int, ttl time.Duration) *Summaries {
	return &Summaries{lru: NewLRUCache[core.EventSummary](maxSize, ttl)}
}

func summaryKey(ownerID, eventID string) string {
	return ownerID + "/" + eventID
}

func (s *Summaries) Get(ownerID, eventID string) (core.EventSummary, bool) {
	return s.lru.Get(summaryKey(ownerID, eventID))
}

// Generation returns the current invalidation generation. Read it before
// loading a summary and pass it to Put.
func (s *Summaries) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Put caches summary unless an invalidation happened after gen was read.
// It reports whether the summary was stored.
func (s *Summaries) Put(ownerID, eventID string, summary core.EventSummary, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.lru.Set(summaryKey(ownerID, eventID), summary)
	return true
}

// Invalidate drops the cached summary of one event.
func (s *Summaries) Invalidate(ownerID, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.lru.Delete(summaryKey(ownerID, eventID))
}

// InvalidateOwner drops every cached summary of an owner.
func (s *Summaries) InvalidateOwner(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.lru.DeletePrefix(ownerID + "/")
}

func (s *Summaries) CleanExpired() int {
	return s.lru.CleanExpired()
}

func (s *Summaries) Size() int {
	return s.lru.Size()
}
