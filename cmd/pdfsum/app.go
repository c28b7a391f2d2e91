// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/cache"
	"github.com/pdiddy/pdfsum/internal/collection"
	"github.com/pdiddy/pdfsum/internal/logger"
	"github.com/pdiddy/pdfsum/internal/repository"
	"github.com/pdiddy/pdfsum/internal/session"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// app wires the client components for one command invocation.
type app struct {
	cfg     types.Config
	log     logger.Logger
	baseURL string

	repo   *repository.Client
	store  *collection.Store
	loader *collection.Loader
	cache  *cache.Store

	persistMu   sync.Mutex
	lastPersist uint64
}

func newApp(cfg types.Config, log logger.Logger) (*app, error) {
	sess, err := session.FromConfig(cfg.Session, cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		return nil, err
	}

	repo := repository.New(sess,
		repository.WithUserAgent(cfg.API.UserAgent),
		repository.WithMaxRetries(cfg.API.MaxRetries),
		repository.WithLogger(log),
	)
	store := collection.NewStore()

	a := &app{
		cfg:     cfg,
		log:     log,
		baseURL: sess.BaseURL(),
		repo:    repo,
		store:   store,
		loader:  collection.NewLoader(store, repo, log),
	}

	if cfg.Cache.Dir != "" {
		c, err := cache.Open(cfg.Cache.Dir)
		if err != nil {
			log.Warnf("snapshot cache disabled: %v", err)
		} else {
			a.cache = c
			store.Subscribe(a.persist)
		}
	}

	if !sess.Authenticated() {
		log.Warnf("no session cookie found in %s", cfg.Session.Dir)
	}
	return a, nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warnf("closing cache: %v", err)
		}
	}
}

// persist saves ready snapshots to the cache. A snapshot older than the
// last one saved is skipped, since coordinators notify from their own
// goroutines.
func (a *app) persist(st collection.State) {
	if st.Status != collection.StatusReady || !a.store.Loaded() {
		return
	}

	a.persistMu.Lock()
	defer a.persistMu.Unlock()
	if st.Version <= a.lastPersist {
		return
	}
	err := a.cache.Save(context.Background(), cache.Snapshot{Summaries: st.Summaries, BaseURL: a.baseURL})
	if err != nil {
		a.log.Warnf("saving snapshot: %v", err)
		return
	}
	a.lastPersist = st.Version
}

// loadBestEffort fetches the collection before a mutating command. A
// failure is logged; the command proceeds against the server regardless.
func (a *app) loadBestEffort(ctx context.Context) {
	if err := a.loader.Refresh(ctx); err != nil {
		a.log.Warnf("could not load summaries: %v", err)
	}
}

// describe adds a remedy to errors the user can act on.
func (a *app) describe(err error) error {
	if err == nil {
		return nil
	}
	if apierr.KindOf(err) == apierr.KindAuth {
		return fmt.Errorf("%w (sign in again and update %s)", err, filepath.Join(a.cfg.Session.Dir, session.KeyCookie))
	}
	return err
}
