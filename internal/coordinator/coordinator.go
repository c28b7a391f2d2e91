// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package coordinator runs the three mutating workflows against the
// summaries API: upload, drive scan and delete. Each coordinator is a small
// state machine (idle, in progress, succeeded, failed) that allows at most
// one operation in flight and applies the server's answer to the collection
// store only after the server has confirmed it.
//
// Submitted requests are not cancelled. A caller whose context ends stops
// waiting, but the request runs to completion (bounded by the HTTP client
// timeout) and its result is still applied.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pdiddy/pdfsum/internal/logger"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// ErrBusy is returned when an operation is requested while another one on
// the same coordinator is still in progress.
var ErrBusy = errors.New("operation already in progress")

// Phase is the lifecycle position of a coordinator.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// Done reports whether p is a terminal phase of an operation.
func (p Phase) Done() bool { return p == PhaseSucceeded || p == PhaseFailed }

// State is the observable state of a coordinator.
type State struct {
	Phase Phase
	// Progress is the upload indicator in [0,1]. It is a heuristic, not a
	// measure of bytes sent.
	Progress float64
	// Count is the number of records created or files processed.
	Count int
	// Files names the files a scan processed.
	Files []string
	// Message is the status line for the user.
	Message string
	// Err is the classified failure when Phase is failed.
	Err error
	// DismissAt is when a succeeded upload returns to idle on its own.
	DismissAt time.Time
}

func (s State) clone() State {
	if s.Files != nil {
		s.Files = append([]string(nil), s.Files...)
	}
	return s
}

// Collection is the part of the collection store the coordinators mutate.
type Collection interface {
	AddMany(summaries []types.Summary) int
	Remove(id types.SummaryID) bool
}

// Refresher re-fetches the full collection. Upload and scan use it when
// the server confirms new work without returning the records.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Option configures a coordinator.
type Option func(*machine)

// WithLogger sets the coordinator's logger.
func WithLogger(l logger.Logger) Option {
	return func(m *machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRefresher sets the list refresher.
func WithRefresher(r Refresher) Option {
	return func(m *machine) { m.refresher = r }
}

// WithOnChange registers fn to receive every state change. fn runs outside
// the coordinator's lock.
func WithOnChange(fn func(State)) Option {
	return func(m *machine) { m.onChange = fn }
}

// machine holds the state shared by all coordinators.
type machine struct {
	mu    sync.Mutex
	state State
	// gen increases with each begin so that a stale dismiss timer cannot
	// reset a later operation.
	gen uint64

	log       logger.Logger
	refresher Refresher
	onChange  func(State)
}

func (m *machine) init(opts []Option) {
	m.state = State{Phase: PhaseIdle}
	m.log = logger.Nop()
	for _, o := range opts {
		o(m)
	}
}

// begin moves to in_progress, or fails with ErrBusy.
func (m *machine) begin(initial State) (uint64, error) {
	m.mu.Lock()
	if m.state.Phase == PhaseInProgress {
		m.mu.Unlock()
		return 0, ErrBusy
	}
	m.gen++
	gen := m.gen
	initial.Phase = PhaseInProgress
	m.state = initial
	st := m.state.clone()
	m.mu.Unlock()

	m.emit(st)
	return gen, nil
}

// reject moves straight to failed for an operation refused before any
// request was made, or fails with ErrBusy.
func (m *machine) reject(st State) (State, error) {
	m.mu.Lock()
	if m.state.Phase == PhaseInProgress {
		m.mu.Unlock()
		return State{}, ErrBusy
	}
	m.gen++
	st.Phase = PhaseFailed
	m.state = st
	out := m.state.clone()
	m.mu.Unlock()

	m.emit(out)
	return out, nil
}

// set replaces the state and notifies the listener.
func (m *machine) set(st State) State {
	m.mu.Lock()
	m.state = st
	out := m.state.clone()
	m.mu.Unlock()

	m.emit(out)
	return out
}

// resetIf returns to idle when the operation identified by gen is still
// the current one and has finished.
func (m *machine) resetIf(gen uint64) {
	m.mu.Lock()
	if m.gen != gen || !m.state.Phase.Done() {
		m.mu.Unlock()
		return
	}
	m.state = State{Phase: PhaseIdle}
	st := m.state
	m.mu.Unlock()

	m.emit(st)
}

// State returns the current state.
func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Reset returns a finished coordinator to idle. It has no effect while an
// operation is in progress.
func (m *machine) Reset() {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	m.resetIf(gen)
}

func (m *machine) emit(st State) {
	if m.onChange != nil {
		m.onChange(st)
	}
}

// refresh asks the refresher, if any, to re-fetch the collection. Its
// failure is logged and does not fail the operation that requested it.
func (m *machine) refresh(ctx context.Context, op string) {
	if m.refresher == nil {
		return
	}
	if err := m.refresher.Refresh(ctx); err != nil {
		m.log.Warnf("%s: refreshing summaries: %v", op, err)
	}
}

// finish delivers the final state on a single-use channel.
func finish(st State) <-chan State {
	ch := make(chan State, 1)
	ch <- st
	close(ch)
	return ch
}

// wait blocks until ch delivers or ctx ends. When ctx ends first the
// operation keeps running and the returned state is the current one.
func wait(ctx context.Context, ch <-chan State, current func() State) (State, error) {
	select {
	case st := <-ch:
		return st, st.Err
	case <-ctx.Done():
		return current(), ctx.Err()
	}
}
