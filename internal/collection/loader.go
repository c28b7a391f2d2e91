// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collection

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/logger"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// Lister fetches the full collection from the server.
type Lister interface {
	ListSummaries(ctx context.Context) ([]types.Summary, error)
}

// Loader performs the session-start fetch and later refreshes.
type Loader struct {
	store *Store
	repo  Lister
	log   logger.Logger
	group singleflight.Group
}

// NewLoader returns a loader that fills store from repo.
func NewLoader(store *Store, repo Lister, log logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{store: store, repo: repo, log: log}
}

// Refresh fetches the collection and replaces the store content. The
// store is marked loading only until its first successful fetch. On
// failure the store keeps its content and records the error. Concurrent
// calls share one request. The request is not cancelled when ctx ends.
func (l *Loader) Refresh(ctx context.Context) error {
	_, err, shared := l.group.Do("list", func() (any, error) {
		if !l.store.Loaded() {
			l.store.MarkLoading()
		}

		list, err := l.repo.ListSummaries(context.WithoutCancel(ctx))
		if err != nil {
			l.store.MarkFailed(apierr.Message(err))
			return nil, fmt.Errorf("refreshing summaries: %w", err)
		}

		l.store.Replace(list)
		l.log.Debugf("loaded %d summaries", len(list))
		return nil, nil
	})
	if shared {
		l.log.Debug("refresh shared with a concurrent caller")
	}
	return err
}
