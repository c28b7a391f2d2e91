// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/pdfsum/pkg/types"
)

const (
	dateLayout = "Jan 2, 2006 15:04"

	// keyMessagePreview is how many key messages show without --all.
	keyMessagePreview = 2

	msgEmptyCollection = "No summaries yet. Upload a PDF or scan your drive to get started."
)

// renderTable prints visible as a table. total is the collection size
// before filtering and picks the empty-state message.
func renderTable(w io.Writer, visible []types.Summary, total int, query string) {
	if total == 0 {
		fmt.Fprintln(w, msgEmptyCollection)
		return
	}
	if len(visible) == 0 {
		fmt.Fprintf(w, "No summaries match %q.\n", query)
		return
	}

	// Ids are printed whole since show and delete take them verbatim.
	idWidth := len("ID")
	for _, s := range visible {
		idWidth = max(idWidth, len([]rune(s.ID.String())))
	}

	fmt.Fprintf(w, "%-*s  %-40s  %-18s  %s\n", idWidth, "ID", "Title", "Added", "File")
	fmt.Fprintln(w, strings.Repeat("-", idWidth+92))

	for _, s := range visible {
		fmt.Fprintf(w, "%-*s  %-40s  %-18s  %s\n",
			idWidth, s.ID, truncate(s.Title, 40), formatDate(s.DateAdded), s.FilePath)
	}

	if len(visible) == total {
		fmt.Fprintf(w, "\n%d summaries\n", total)
	} else {
		fmt.Fprintf(w, "\n%d of %d summaries\n", len(visible), total)
	}
}

// renderSummary prints one summary in full. Key messages beyond the
// preview are elided unless all is set.
func renderSummary(w io.Writer, s types.Summary, all bool, now time.Time) {
	fmt.Fprintln(w, s.Title)
	fmt.Fprintln(w, strings.Repeat("=", min(len([]rune(s.Title)), 80)))
	fmt.Fprintf(w, "ID:     %s\n", s.ID)
	if !s.DateAdded.IsZero() {
		fmt.Fprintf(w, "Added:  %s (%s)\n", formatDate(s.DateAdded), humanize.RelTime(s.DateAdded, now, "ago", "from now"))
	}
	if s.FilePath != "" {
		fmt.Fprintf(w, "File:   %s\n", s.FilePath)
	}
	if s.ExternalLink != "" {
		fmt.Fprintf(w, "Link:   %s\n", s.ExternalLink)
	}

	if s.SummaryText != "" {
		fmt.Fprintf(w, "\n%s\n", s.SummaryText)
	}

	if len(s.KeyMessages) > 0 {
		fmt.Fprintln(w, "\nKey messages:")
		shown := s.KeyMessages
		if !all && len(shown) > keyMessagePreview {
			shown = shown[:keyMessagePreview]
		}
		for _, m := range shown {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		if rest := len(s.KeyMessages) - len(shown); rest > 0 {
			fmt.Fprintf(w, "  (+%d more, use --all)\n", rest)
		}
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
