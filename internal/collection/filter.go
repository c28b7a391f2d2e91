// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collection

import (
	"strings"

	"github.com/pdiddy/pdfsum/pkg/types"
)

// Filter returns the summaries whose title or summary text contains query,
// ignoring case, in their original order. An empty query returns summaries
// itself. Filter never modifies its input.
func Filter(summaries []types.Summary, query string) []types.Summary {
	if query == "" {
		return summaries
	}

	q := strings.ToLower(query)
	out := make([]types.Summary, 0, len(summaries))
	for _, s := range summaries {
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.SummaryText), q) {
			out = append(out, s)
		}
	}
	return out
}
