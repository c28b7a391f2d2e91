// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for pdfsum: the Summary record
// served by the summaries API, the scan result, and configuration.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SummaryID is the opaque identifier the API assigns to a summary. The API
// may serialize it as a JSON number or string; both decode to the same value.
type SummaryID string

// UnmarshalJSON accepts a JSON string or number.
func (id *SummaryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SummaryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("summary id: %w", err)
	}
	*id = SummaryID(n.String())
	return nil
}

// String returns the identifier as it appears in API paths.
func (id SummaryID) String() string { return string(id) }

// Summary is a single processed document record. Summaries are immutable
// from the client's perspective: they are created or deleted whole.
type Summary struct {
	// ID is unique within a collection and stable for the record's lifetime.
	ID SummaryID `json:"id" yaml:"id"`

	// Title is the display title of the source document.
	Title string `json:"title" yaml:"title"`

	// SummaryText is the generated prose summary.
	SummaryText string `json:"summary" yaml:"summary"`

	// KeyMessages lists short takeaways in order. Nil when the backend
	// produced none.
	KeyMessages []string `json:"key_messages,omitempty" yaml:"key_messages,omitempty"`

	// FilePath is the origin path of the document in the source drive.
	FilePath string `json:"file_path" yaml:"file_path"`

	// ExternalLink points at a viewer for the source document.
	ExternalLink string `json:"external_link,omitempty" yaml:"external_link,omitempty"`

	// DateAdded is when the server created the record.
	DateAdded time.Time `json:"date_added" yaml:"date_added"`
}

// summaryWire mirrors the API's JSON shape, which differs from Summary in
// field names and in how key messages and dates are encoded.
type summaryWire struct {
	ID              SummaryID       `json:"id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	KeyMessages     json.RawMessage `json:"key_messages"`
	FilePath        string          `json:"file_path"`
	GoogleDriveLink string          `json:"google_drive_link"`
	ExternalLink    string          `json:"external_link"`
	DateAdded       string          `json:"date_added"`
}

// UnmarshalJSON decodes the API representation of a summary.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var w summaryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	msgs, err := decodeKeyMessages(w.KeyMessages)
	if err != nil {
		return fmt.Errorf("summary %s: key_messages: %w", w.ID, err)
	}

	// An unrecognized date leaves DateAdded zero rather than losing the record.
	var added time.Time
	if w.DateAdded != "" {
		added, _ = ParseTimestamp(w.DateAdded)
	}

	link := w.GoogleDriveLink
	if link == "" {
		link = w.ExternalLink
	}

	*s = Summary{
		ID:           w.ID,
		Title:        w.Title,
		SummaryText:  w.Summary,
		KeyMessages:  msgs,
		FilePath:     w.FilePath,
		ExternalLink: link,
		DateAdded:    added,
	}
	return nil
}

// decodeKeyMessages accepts either a JSON array of strings or a single
// newline-joined string. Blank entries are dropped; an empty result is nil.
func decodeKeyMessages(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var lines []string
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &lines); err != nil {
			return nil, err
		}
	} else {
		var joined string
		if err := json.Unmarshal(raw, &joined); err != nil {
			return nil, err
		}
		lines = strings.Split(joined, "\n")
	}

	var out []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

// timestampLayouts are tried in order. The API emits naive ISO-8601 values
// (no zone) which are read as UTC, or RFC 1123 dates when its JSON encoder
// formats datetimes itself.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an API timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ScanResult is the outcome of a remote drive scan.
type ScanResult struct {
	// ProcessedCount is the number of new files ingested. Zero means no new
	// files were found, which is a successful outcome.
	ProcessedCount int `json:"processed_count" yaml:"processed_count"`

	// ProcessedFiles names the ingested files in server order.
	ProcessedFiles []string `json:"processed_files" yaml:"processed_files"`

	// Summaries holds records created by the scan when the server returns
	// them. The scan endpoint usually reports file names only.
	Summaries []Summary `json:"summaries,omitempty" yaml:"summaries,omitempty"`
}
