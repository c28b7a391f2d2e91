// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfsum/internal/cache"
	"github.com/pdiddy/pdfsum/internal/collection"
	"github.com/pdiddy/pdfsum/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List summaries, optionally filtered by a search query",
	Long: `List fetches your summaries and prints them as a table. A query keeps only
summaries whose title or summary text contains it, ignoring case.

With --offline the last snapshot saved by a previous command is shown
instead, without contacting the server.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringP("query", "q", "", "search text matched against title and summary")
	listCmd.Flags().Bool("json", false, "output summaries as JSON")
	listCmd.Flags().Bool("offline", false, "show the cached snapshot without contacting the server")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(appConfig, log)
	if err != nil {
		return err
	}
	defer a.close()

	offline, _ := cmd.Flags().GetBool("offline")
	asJSON, _ := cmd.Flags().GetBool("json")

	all, err := a.fetchSummaries(cmd.Context(), offline)
	if err != nil {
		return err
	}

	query := queryFromFlags(cmd, args)
	visible := collection.Filter(all, query)

	out := cmd.OutOrStdout()
	if asJSON {
		if visible == nil {
			visible = []types.Summary{}
		}
		return renderJSON(out, visible)
	}
	renderTable(out, visible, len(all), query)
	return nil
}

// fetchSummaries returns the summaries to render: fetched from the server, or
// read from the snapshot cache when offline is set.
func (a *app) fetchSummaries(ctx context.Context, offline bool) ([]types.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if offline {
		if a.cache == nil {
			return nil, fmt.Errorf("offline mode needs the snapshot cache (cache.dir)")
		}
		snap, err := a.cache.Load(ctx)
		if errors.Is(err, cache.ErrEmpty) {
			return nil, fmt.Errorf("no cached snapshot yet: run pdfsum list while online first")
		}
		if err != nil {
			return nil, err
		}
		if snap.BaseURL != "" && snap.BaseURL != a.baseURL {
			a.log.Warnf("cached snapshot is from %s, not %s", snap.BaseURL, a.baseURL)
		}
		a.log.Infof("showing snapshot saved %s", humanize.Time(snap.SavedAt))
		return snap.Summaries, nil
	}

	if err := a.loader.Refresh(ctx); err != nil {
		return nil, a.describe(err)
	}
	return a.store.Snapshot().Summaries, nil
}

func queryFromFlags(cmd *cobra.Command, args []string) string {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	return query
}
