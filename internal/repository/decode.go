// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// recordsEnvelope covers the object shapes the API uses to return records.
type recordsEnvelope struct {
	Summaries json.RawMessage `json:"summaries"`
	Summary   json.RawMessage `json:"summary"`
	ID        json.RawMessage `json:"id"`
}

// decodeRecords accepts a JSON array of summaries, an object carrying
// "summaries" or a "summary" object, or a bare summary object with an id.
// A record's own "summary" field is its text, so "summary" is an envelope
// only when it holds an object. Any other JSON object and an empty body
// decode to zero records.
func decodeRecords(body []byte) ([]types.Summary, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	switch body[0] {
	case '[':
		var list []types.Summary
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var env recordsEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		switch {
		case present(env.Summaries):
			return decodeRecords(env.Summaries)
		case isObject(env.Summary):
			return decodeRecords(env.Summary)
		case present(env.ID):
			var s types.Summary
			if err := json.Unmarshal(body, &s); err != nil {
				return nil, err
			}
			return []types.Summary{s}, nil
		}
		return nil, nil
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("response is not JSON")
	}
	return nil, nil
}

type scanWire struct {
	ProcessedFiles []string        `json:"processed_files"`
	ProcessedCount *int            `json:"processed_count"`
	Summaries      json.RawMessage `json:"summaries"`
}

// decodeScan reads a scan response. The count is processed_count when the
// server sends it, otherwise the number of processed files.
func decodeScan(body []byte) (types.ScanResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return types.ScanResult{}, nil
	}

	var w scanWire
	if err := json.Unmarshal(body, &w); err != nil {
		return types.ScanResult{}, err
	}

	res := types.ScanResult{
		ProcessedFiles: w.ProcessedFiles,
		ProcessedCount: len(w.ProcessedFiles),
	}
	if w.ProcessedCount != nil && *w.ProcessedCount >= 0 {
		res.ProcessedCount = *w.ProcessedCount
	}
	if present(w.Summaries) {
		records, err := decodeRecords(w.Summaries)
		if err != nil {
			return types.ScanResult{}, fmt.Errorf("summaries: %w", err)
		}
		res.Summaries = records
	}
	return res, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// statusError classifies a non-2xx response.
func statusError(op string, status int, body []byte) *apierr.Error {
	e := &apierr.Error{
		Kind:    apierr.KindServer,
		Op:      op,
		Status:  status,
		Message: errorMessage(body, fallbackMessages[op]),
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = apierr.KindAuth
	case status == http.StatusNotFound && op == OpDelete:
		e.Kind = apierr.KindNotFound
	case op == OpUpload && (status == http.StatusBadRequest ||
		status == http.StatusRequestEntityTooLarge ||
		status == http.StatusUnsupportedMediaType):
		e.Kind = apierr.KindValidation
	}
	return e
}

// errorMessage returns the "error" field of a JSON error body, fallback
// when the body is JSON without one, and "network error" when the body is
// not JSON at all.
func errorMessage(body []byte, fallback string) string {
	if !json.Valid(body) {
		return "network error"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fallback
}
