// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinator

import (
	"context"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// Deleter removes a summary on the server.
type Deleter interface {
	DeleteSummary(ctx context.Context, id types.SummaryID) error
}

// Delete runs the delete workflow. The record stays in the store until the
// server confirms the deletion.
type Delete struct {
	machine
	repo  Deleter
	store Collection
}

// NewDelete returns an idle delete coordinator.
func NewDelete(repo Deleter, store Collection, opts ...Option) *Delete {
	d := &Delete{repo: repo, store: store}
	d.init(opts)
	return d
}

// Start submits the deletion of id on a new goroutine and returns a
// channel that delivers the final state. It returns ErrBusy while another
// deletion is in progress.
func (d *Delete) Start(ctx context.Context, id types.SummaryID) (<-chan State, error) {
	if _, err := d.begin(State{Message: "Deleting summary " + id.String()}); err != nil {
		return nil, err
	}

	ch := make(chan State, 1)
	go func() {
		defer close(ch)
		err := d.repo.DeleteSummary(context.WithoutCancel(ctx), id)
		ch <- d.complete(id, err)
	}()
	return ch, nil
}

// Run is Start followed by waiting for the result.
func (d *Delete) Run(ctx context.Context, id types.SummaryID) (State, error) {
	ch, err := d.Start(ctx, id)
	if err != nil {
		return d.State(), err
	}
	return wait(ctx, ch, d.State)
}

func (d *Delete) complete(id types.SummaryID, err error) State {
	if err != nil {
		// A record the server no longer has is still a failure; the store
		// keeps it until the next list fetch.
		d.log.Warnf("delete %s: %v", id, err)
		return d.set(State{Phase: PhaseFailed, Message: apierr.Message(err), Err: err})
	}

	removed := d.store.Remove(id)
	d.log.Infof("delete %s: removed from collection: %t", id, removed)
	return d.set(State{
		Phase:   PhaseSucceeded,
		Count:   1,
		Message: "Deleted summary " + id.String(),
	})
}
