// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinator

import (
	"context"
	"fmt"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/repository"
	"github.com/pdiddy/pdfsum/pkg/types"
)

const msgNoNewFiles = "No new files found"

// Scanner triggers a remote drive scan.
type Scanner interface {
	ScanRemoteDrive(ctx context.Context) (types.ScanResult, error)
}

// Scan runs the remote ingestion workflow.
type Scan struct {
	machine
	repo  Scanner
	store Collection
}

// NewScan returns an idle scan coordinator.
func NewScan(repo Scanner, store Collection, opts ...Option) *Scan {
	s := &Scan{repo: repo, store: store}
	s.init(opts)
	return s
}

// Start submits a scan on a new goroutine and returns a channel that
// delivers the final state. It returns ErrBusy while a scan is in
// progress, without contacting the server.
func (s *Scan) Start(ctx context.Context) (<-chan State, error) {
	if _, err := s.begin(State{Message: "Scanning drive"}); err != nil {
		return nil, err
	}

	ch := make(chan State, 1)
	go func() {
		defer close(ch)
		ctx := context.WithoutCancel(ctx)
		res, err := s.repo.ScanRemoteDrive(ctx)
		ch <- s.complete(ctx, res, err)
	}()
	return ch, nil
}

// Run is Start followed by waiting for the result.
func (s *Scan) Run(ctx context.Context) (State, error) {
	ch, err := s.Start(ctx)
	if err != nil {
		return s.State(), err
	}
	return wait(ctx, ch, s.State)
}

func (s *Scan) complete(ctx context.Context, res types.ScanResult, err error) State {
	if err != nil {
		s.log.Warnf("scan: %v", err)
		return s.set(State{Phase: PhaseFailed, Message: apierr.Message(err), Err: err})
	}

	n := res.ProcessedCount
	added := s.store.AddMany(res.Summaries)
	s.log.Infof("scan: %d files processed, %d records added", n, added)
	if n > 0 && len(res.Summaries) == 0 {
		s.refresh(ctx, repository.OpScan)
	}

	return s.set(State{
		Phase:   PhaseSucceeded,
		Count:   n,
		Files:   res.ProcessedFiles,
		Message: ScanMessage(n),
	})
}

// ScanMessage is the status line for a scan that processed n files.
func ScanMessage(n int) string {
	if n <= 0 {
		return msgNoNewFiles
	}
	return fmt.Sprintf("Successfully processed %d new files", n)
}
