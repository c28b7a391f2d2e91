// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collection holds the authoritative in-memory view of the user's
// summaries. The Store is mutated only by the list fetch and by the
// operation coordinators after the server has confirmed a change; readers
// take snapshots and never see a partially applied mutation.
package collection

import (
	"sync"

	"github.com/pdiddy/pdfsum/pkg/types"
)

// Status is the state of the collection as a whole.
type Status string

const (
	// StatusLoading means the initial list fetch has not completed.
	StatusLoading Status = "loading"
	// StatusReady means the store reflects a successful list fetch.
	StatusReady Status = "ready"
	// StatusError means the most recent list fetch failed.
	StatusError Status = "error"
)

// State is a point-in-time copy of the store.
type State struct {
	Summaries []types.Summary
	Status    Status
	// Message explains an error status.
	Message string
	// Version increases on every mutation.
	Version uint64
}

// Store is a goroutine-safe, de-duplicated, ordered collection of
// summaries. The zero value is not usable; call NewStore.
type Store struct {
	mu        sync.Mutex
	summaries []types.Summary
	ids       map[types.SummaryID]struct{}
	status    Status
	message   string
	version   uint64
	loaded    bool

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewStore returns an empty store in the loading state.
func NewStore() *Store {
	return &Store{
		ids:    make(map[types.SummaryID]struct{}),
		status: StatusLoading,
		subs:   make(map[int]func(State)),
	}
}

// Replace sets the content to exactly summaries, keeping the first
// occurrence of each id, and marks the store ready. When a record already
// held has a later DateAdded than the incoming one, the later timestamp is
// kept.
func (s *Store) Replace(summaries []types.Summary) {
	s.mu.Lock()
	prev := make(map[types.SummaryID]types.Summary, len(s.summaries))
	for _, sum := range s.summaries {
		prev[sum.ID] = sum
	}

	next := make([]types.Summary, 0, len(summaries))
	ids := make(map[types.SummaryID]struct{}, len(summaries))
	for _, sum := range summaries {
		if _, dup := ids[sum.ID]; dup {
			continue
		}
		if old, ok := prev[sum.ID]; ok && old.DateAdded.After(sum.DateAdded) {
			sum.DateAdded = old.DateAdded
		}
		ids[sum.ID] = struct{}{}
		next = append(next, sum)
	}

	s.summaries = next
	s.ids = ids
	s.status = StatusReady
	s.message = ""
	s.loaded = true
	st := s.bumpLocked()
	s.mu.Unlock()

	s.notify(st)
}

// AddMany appends every record whose id is not already present and returns
// the number added. Records with a known id are left unchanged.
func (s *Store) AddMany(summaries []types.Summary) int {
	s.mu.Lock()
	added := 0
	for _, sum := range summaries {
		if _, ok := s.ids[sum.ID]; ok {
			continue
		}
		s.ids[sum.ID] = struct{}{}
		s.summaries = append(s.summaries, sum)
		added++
	}
	if added == 0 {
		s.mu.Unlock()
		return 0
	}
	st := s.bumpLocked()
	s.mu.Unlock()

	s.notify(st)
	return added
}

// Remove deletes the record with the given id. It reports whether a record
// was removed; removing an absent id is a no-op.
func (s *Store) Remove(id types.SummaryID) bool {
	s.mu.Lock()
	if _, ok := s.ids[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.ids, id)
	next := make([]types.Summary, 0, len(s.summaries)-1)
	for _, sum := range s.summaries {
		if sum.ID != id {
			next = append(next, sum)
		}
	}
	s.summaries = next
	st := s.bumpLocked()
	s.mu.Unlock()

	s.notify(st)
	return true
}

// MarkLoading moves the store to the loading status without touching its
// content.
func (s *Store) MarkLoading() {
	s.mu.Lock()
	s.status = StatusLoading
	s.message = ""
	st := s.bumpLocked()
	s.mu.Unlock()
	s.notify(st)
}

// MarkFailed records a failed list fetch. Existing content is kept.
func (s *Store) MarkFailed(msg string) {
	s.mu.Lock()
	s.status = StatusError
	s.message = msg
	st := s.bumpLocked()
	s.mu.Unlock()
	s.notify(st)
}

// Loaded reports whether a list fetch has ever succeeded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Get returns the record with the given id.
func (s *Store) Get(id types.SummaryID) (types.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return types.Summary{}, false
	}
	for _, sum := range s.summaries {
		if sum.ID == id {
			return copySummary(sum), true
		}
	}
	return types.Summary{}, false
}

// Snapshot returns a copy of the current state. Mutating the result does
// not affect the store.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe registers fn to receive a snapshot after every mutation.
// Callbacks run on the mutating goroutine after the store lock is released.
// The returned function unregisters fn.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) bumpLocked() State {
	s.version++
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	out := make([]types.Summary, len(s.summaries))
	for i, sum := range s.summaries {
		out[i] = copySummary(sum)
	}
	return State{
		Summaries: out,
		Status:    s.status,
		Message:   s.message,
		Version:   s.version,
	}
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func copySummary(s types.Summary) types.Summary {
	if s.KeyMessages != nil {
		s.KeyMessages = append([]string(nil), s.KeyMessages...)
	}
	return s
}
