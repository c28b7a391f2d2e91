// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repository is the client for the remote summaries API. It maps
// the four collection operations onto HTTP requests made under the caller's
// session and normalizes every failure into an *apierr.Error.
package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pdfsum/internal/apierr"
	"github.com/pdiddy/pdfsum/internal/httputil"
	"github.com/pdiddy/pdfsum/internal/logger"
	"github.com/pdiddy/pdfsum/pkg/types"
)

// Operation names carried in errors and log fields.
const (
	OpList   = "list"
	OpUpload = "upload"
	OpScan   = "scan"
	OpDelete = "delete"
)

const (
	pathSummaries = "/pdf/summaries"
	pathUpload    = "/pdf/upload"
	pathScan      = "/pdf/scan-drive"

	// uploadField is the multipart field the API reads the document from.
	uploadField = "file"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 32 << 20

	defaultUserAgent = "pdfsum"
)

// Fallback messages used when an error response carries no message. They
// are shown to the user as is.
var fallbackMessages = map[string]string{
	OpList:   "Failed to fetch summaries",
	OpUpload: "Upload failed",
	OpScan:   "Failed to scan Google Drive",
	OpDelete: "Failed to delete summary",
}

// Session is the part of the session subsystem the client depends on.
type Session interface {
	BaseURL() string
	HTTPClient() *http.Client
	Authenticated() bool
}

// Client talks to the summaries API.
type Client struct {
	sess       Session
	userAgent  string
	maxRetries int
	log        logger.Logger
	requestID  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxRetries caps retries of idempotent requests on 429/503.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the logger for per-request debug lines.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client bound to sess.
func New(sess Session, opts ...Option) *Client {
	c := &Client{
		sess:      sess,
		userAgent: defaultUserAgent,
		log:       logger.Nop(),
		requestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListSummaries returns every summary owned by the session's user, in
// server order.
func (c *Client) ListSummaries(ctx context.Context) ([]types.Summary, error) {
	req, err := c.newRequest(ctx, OpList, http.MethodGet, pathSummaries, nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, OpList, req, true)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, apierr.Network(OpList, fmt.Errorf("decoding summaries: %w", err))
	}
	return c.keepIdentified(OpList, records), nil
}

// UploadDocument submits one document for summarization and returns the
// records the server created. A successful response may carry zero
// records. The input is not validated here.
func (c *Client) UploadDocument(ctx context.Context, data []byte, fileName string) ([]types.Summary, error) {
	payload, contentType, err := multipartBody(data, fileName)
	if err != nil {
		return nil, apierr.Network(OpUpload, fmt.Errorf("building upload body: %w", err))
	}
	req, err := c.newRequest(ctx, OpUpload, http.MethodPost, pathUpload, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	body, err := c.do(ctx, OpUpload, req, false)
	if err != nil {
		return nil, err
	}
	records, err := decodeRecords(body)
	if err != nil {
		return nil, apierr.Network(OpUpload, fmt.Errorf("decoding upload response: %w", err))
	}
	return c.keepIdentified(OpUpload, records), nil
}

// ScanRemoteDrive asks the server to ingest new documents from the user's
// linked drive. A zero count is a successful outcome. Scans are never
// retried.
func (c *Client) ScanRemoteDrive(ctx context.Context) (types.ScanResult, error) {
	req, err := c.newRequest(ctx, OpScan, http.MethodPost, pathScan, nil)
	if err != nil {
		return types.ScanResult{}, err
	}
	body, err := c.do(ctx, OpScan, req, false)
	if err != nil {
		return types.ScanResult{}, err
	}
	res, err := decodeScan(body)
	if err != nil {
		return types.ScanResult{}, apierr.Network(OpScan, fmt.Errorf("decoding scan response: %w", err))
	}
	res.Summaries = c.keepIdentified(OpScan, res.Summaries)
	return res, nil
}

// DeleteSummary deletes one summary. A missing record yields an
// apierr.KindNotFound error.
func (c *Client) DeleteSummary(ctx context.Context, id types.SummaryID) error {
	if id == "" {
		return apierr.Validation(OpDelete, "missing summary id")
	}
	req, err := c.newRequest(ctx, OpDelete, http.MethodDelete, pathSummaries+"/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, OpDelete, req, true)
	return err
}

func (c *Client) newRequest(ctx context.Context, op, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.sess.BaseURL()+path, r)
	if err != nil {
		return nil, apierr.Network(op, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// do sends req and returns the body of a 2xx response. Idempotent requests
// go through httputil.DoWithRetry.
func (c *Client) do(ctx context.Context, op string, req *http.Request, idempotent bool) ([]byte, error) {
	if !c.sess.Authenticated() {
		return nil, apierr.New(apierr.KindAuth, op, "not signed in")
	}

	reqID := c.requestID()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	var (
		resp *http.Response
		err  error
	)
	if idempotent {
		resp, err = httputil.DoWithRetry(ctx, c.sess.HTTPClient(), req, c.maxRetries)
	} else {
		resp, err = c.sess.HTTPClient().Do(req)
	}
	if err != nil {
		logger.DebugWithFields(c.log, "request failed", logger.Fields{
			"request_id": reqID, "op": op, "error": err.Error(),
		})
		return nil, apierr.Network(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	logger.DebugWithFields(c.log, "request done", logger.Fields{
		"request_id": reqID,
		"op":         op,
		"method":     req.Method,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).String(),
	})
	if err != nil {
		return nil, &apierr.Error{Kind: apierr.KindNetwork, Op: op, Status: resp.StatusCode, Message: "network error", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(op, resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) keepIdentified(op string, records []types.Summary) []types.Summary {
	out := records[:0:0]
	for _, s := range records {
		if s.ID == "" {
			c.log.Warnf("%s: dropping summary %q without id", op, s.Title)
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func multipartBody(data []byte, fileName string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     uploadField,
		"filename": filepath.Base(fileName),
	}))
	h.Set("Content-Type", "application/pdf")

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
