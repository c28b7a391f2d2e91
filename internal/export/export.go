// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes collection snapshots as YAML or JSON documents.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdfsum/pkg/types"
)

// Format is an output encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts yaml, yml or json, in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want yaml or json)", s)
}

// Document is the exported file.
type Document struct {
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Source     string          `json:"source,omitempty" yaml:"source,omitempty"`
	Query      string          `json:"query,omitempty" yaml:"query,omitempty"`
	Count      int             `json:"count" yaml:"count"`
	Summaries  []types.Summary `json:"summaries" yaml:"summaries"`
}

// NewDocument wraps summaries for export. A nil slice is exported as an
// empty list.
func NewDocument(summaries []types.Summary, source, query string) Document {
	if summaries == nil {
		summaries = []types.Summary{}
	}
	return Document{
		ExportedAt: time.Now().UTC(),
		Source:     source,
		Query:      query,
		Count:      len(summaries),
		Summaries:  summaries,
	}
}

// Write encodes doc to w.
func Write(w io.Writer, f Format, doc Document) error {
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteFile encodes doc to path.
func WriteFile(path string, f Format, doc Document) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(file, f, doc); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
