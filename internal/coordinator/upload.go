// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package coordinator

import (
	"context"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/repository"
	"github.com/pdiddy/pdfsum/pkg/types"
)

const (
	defaultProgressInterval = 200 * time.Millisecond
	progressStep            = 0.1
	progressCap             = 0.9

	msgUploadSuccess = "Upload successful"
)

// Uploader submits a document to the summaries API.
type Uploader interface {
	UploadDocument(ctx context.Context, data []byte, fileName string) ([]types.Summary, error)
}

// Upload runs the manual ingestion workflow.
type Upload struct {
	machine
	repo  Uploader
	store Collection
	cfg   types.UploadConfig
	now   func() time.Time
}

// NewUpload returns an idle upload coordinator. Zero values in cfg take
// their defaults: a 10 MiB limit and a 200ms progress tick. A zero
// DismissAfter leaves a succeeded upload visible until Reset.
func NewUpload(repo Uploader, store Collection, cfg types.UploadConfig, opts ...Option) *Upload {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = types.MaxUploadBytes
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}
	u := &Upload{repo: repo, store: store, cfg: cfg, now: time.Now}
	u.init(opts)
	return u
}

// Start validates doc and, if it passes, submits it on a new goroutine.
// The returned channel delivers the final state. A document that fails
// validation moves the coordinator to failed without any request. Start
// returns ErrBusy while an upload is in progress.
func (u *Upload) Start(ctx context.Context, doc Document) (<-chan State, error) {
	if err := Validate(doc, u.cfg.MaxBytes); err != nil {
		st, busy := u.reject(State{Message: apierr.Message(err), Err: err})
		if busy != nil {
			return nil, busy
		}
		u.log.Infof("upload: rejected %s: %v", doc.Name, err)
		return finish(st), nil
	}

	gen, err := u.begin(State{Message: "Uploading " + doc.Name})
	if err != nil {
		return nil, err
	}

	if pages, err := PageCount(doc.Data); err == nil {
		u.log.Infof("upload: %s, %s, %d pages", doc.Name, humanize.IBytes(uint64(len(doc.Data))), pages)
	} else {
		u.log.Debugf("upload: %s: page count unavailable: %v", doc.Name, err)
	}

	ch := make(chan State, 1)
	go u.run(context.WithoutCancel(ctx), gen, doc, ch)
	return ch, nil
}

// Run is Start followed by waiting for the result. If ctx ends first, Run
// returns the current state and ctx.Err(); the upload continues.
func (u *Upload) Run(ctx context.Context, doc Document) (State, error) {
	ch, err := u.Start(ctx, doc)
	if err != nil {
		return u.State(), err
	}
	return wait(ctx, ch, u.State)
}

type uploadResult struct {
	records []types.Summary
	err     error
}

func (u *Upload) run(ctx context.Context, gen uint64, doc Document, out chan<- State) {
	defer close(out)

	done := make(chan uploadResult, 1)
	go func() {
		records, err := u.repo.UploadDocument(ctx, doc.Data, doc.Name)
		done <- uploadResult{records, err}
	}()

	ticker := time.NewTicker(u.cfg.ProgressInterval)
	defer ticker.Stop()

	st := u.State()
	for {
		select {
		case <-ticker.C:
			if p := nextProgress(st.Progress); p != st.Progress {
				st.Progress = p
				st = u.set(st)
			}
		case res := <-done:
			ticker.Stop()
			out <- u.complete(ctx, gen, doc, res)
			return
		}
	}
}

func (u *Upload) complete(ctx context.Context, gen uint64, doc Document, res uploadResult) State {
	if res.err != nil {
		u.log.Warnf("upload: %s: %v", doc.Name, res.err)
		return u.set(State{
			Phase:    PhaseFailed,
			Progress: 1,
			Message:  apierr.Message(res.err),
			Err:      res.err,
		})
	}

	added := u.store.AddMany(res.records)
	u.log.Infof("upload: %s: %d records returned, %d added", doc.Name, len(res.records), added)
	if len(res.records) == 0 {
		u.refresh(ctx, repository.OpUpload)
	}

	st := State{
		Phase:    PhaseSucceeded,
		Progress: 1,
		Count:    len(res.records),
		Message:  msgUploadSuccess,
	}
	d := u.cfg.DismissAfter
	if d > 0 {
		st.DismissAt = u.now().Add(d)
	}
	st = u.set(st)
	if d > 0 {
		time.AfterFunc(d, func() { u.resetIf(gen) })
	}
	return st
}

// nextProgress advances the indicator by one step, never past the cap.
func nextProgress(p float64) float64 {
	next := math.Round((p+progressStep)*10) / 10
	return math.Min(next, progressCap)
}
