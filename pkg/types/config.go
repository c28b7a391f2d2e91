// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// MaxUploadBytes is the largest document the upload workflow accepts (10 MiB).
const MaxUploadBytes int64 = 10 << 20

// HTTPConfig holds settings for requests to the summaries API.
type HTTPConfig struct {
	// BaseURL is the API root, e.g. "https://summarizer.example.com/api".
	// Operation paths such as /pdf/summaries are appended to it.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each request end to end. A scan can run for minutes,
	// so the default is generous.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with every request (e.g. "pdfsum/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries caps retries of idempotent requests on 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SessionConfig locates the session credentials issued by the login flow.
type SessionConfig struct {
	// Dir holds one file per credential (session-cookie, base-url).
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// CookieName is the name of the session cookie the API expects.
	CookieName string `json:"cookie_name" yaml:"cookie_name" mapstructure:"cookie_name"`
}

// UploadConfig holds settings for the upload workflow.
type UploadConfig struct {
	// MaxBytes rejects larger files before any request is made (default 10 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes" mapstructure:"max_bytes"`

	// ProgressInterval is the tick of the simulated progress indicator.
	ProgressInterval time.Duration `json:"progress_interval" yaml:"progress_interval" mapstructure:"progress_interval"`

	// DismissAfter is how long a succeeded upload stays visible before the
	// coordinator returns to idle. Zero disables auto-dismiss.
	DismissAfter time.Duration `json:"dismiss_after" yaml:"dismiss_after" mapstructure:"dismiss_after"`

	// Parallel bounds concurrent uploads when several files are given.
	Parallel int `json:"parallel" yaml:"parallel" mapstructure:"parallel"`
}

// CacheConfig holds settings for the local snapshot cache.
type CacheConfig struct {
	// Dir contains summaries.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, notice, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all settings read from pdfsum.yaml, the environment and flags.
type Config struct {
	API     HTTPConfig    `json:"api" yaml:"api" mapstructure:"api"`
	Session SessionConfig `json:"session" yaml:"session" mapstructure:"session"`
	Upload  UploadConfig  `json:"upload" yaml:"upload" mapstructure:"upload"`
	Cache   CacheConfig   `json:"cache" yaml:"cache" mapstructure:"cache"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
