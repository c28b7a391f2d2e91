// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session provides the authenticated session the summaries client
// runs under. Credentials are issued by the login flow, which lives outside
// this repository, and stored in a directory of plain-text files: the
// filename is the key name and the trimmed file contents are the value.
//
// Supported key files: session-cookie, base-url.
package session

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/pdiddy/pdfsum/pkg/types"
)

const (
	// KeyCookie holds the session cookie value.
	KeyCookie = "session-cookie"
	// KeyBaseURL overrides the configured API base URL.
	KeyBaseURL = "base-url"

	defaultCookieName = "session"
)

// LoadCredentials reads all files in dir and returns a map of filename to
// trimmed contents. A missing directory is not an error; LoadCredentials
// returns an empty map. Unreadable files produce a warning on stderr but do
// not abort.
func LoadCredentials(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading session directory %s: %w", dir, err)
	}

	creds := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read credential %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			creds[name] = value
		}
	}

	return creds, nil
}

// Session is a cookie-authenticated connection to one API base URL.
type Session struct {
	baseURL       string
	client        *http.Client
	authenticated bool
}

// New builds a session for baseURL. When cookie is non-empty it is
// installed in the client's cookie jar under cookieName, scoped to the
// base URL's host, and the session reports itself authenticated.
func New(baseURL, cookieName, cookie string, timeout time.Duration) (*Session, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if cookieName == "" {
		cookieName = defaultCookieName
	}
	if cookie != "" {
		jar.SetCookies(&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, []*http.Cookie{{
			Name:   cookieName,
			Value:  cookie,
			Path:   "/",
			Secure: u.Scheme == "https",
		}})
	}

	return &Session{
		baseURL:       u.String(),
		client:        &http.Client{Timeout: timeout, Jar: jar},
		authenticated: cookie != "",
	}, nil
}

// FromConfig loads credentials from cfg.Dir and builds a session. A
// base-url credential takes precedence over baseURL.
func FromConfig(cfg types.SessionConfig, baseURL string, timeout time.Duration) (*Session, error) {
	creds, err := LoadCredentials(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if v, ok := creds[KeyBaseURL]; ok {
		baseURL = v
	}
	return New(baseURL, cfg.CookieName, creds[KeyCookie], timeout)
}

// BaseURL returns the API root without a trailing slash.
func (s *Session) BaseURL() string { return s.baseURL }

// HTTPClient returns the client that carries the session cookies.
func (s *Session) HTTPClient() *http.Client { return s.client }

// Authenticated reports whether session credentials are present. It does
// not contact the server; a stale cookie surfaces as an auth error on the
// first request.
func (s *Session) Authenticated() bool { return s.authenticated }
