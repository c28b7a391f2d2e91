// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apierr defines the tagged errors produced by the summaries client.
// Every failure of a repository call or an upload preflight resolves to an
// *Error carrying one Kind and a short message fit for a status line.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// KindValidation is a client-side preflight rejection or a server
	// rejection of the content type or size.
	KindValidation Kind = "validation"
	// KindNetwork means no usable response was received.
	KindNetwork Kind = "network"
	// KindAuth means the session was rejected.
	KindAuth Kind = "auth"
	// KindServer is any other non-2xx response.
	KindServer Kind = "server"
	// KindNotFound means the target record no longer exists.
	KindNotFound Kind = "not_found"
)

// Sentinels for errors.Is matching against any *Error of the same kind.
var (
	ErrValidation = errors.New("validation error")
	ErrNetwork    = errors.New("network error")
	ErrAuth       = errors.New("auth error")
	ErrServer     = errors.New("server error")
	ErrNotFound   = errors.New("not found")
)

var sentinels = map[Kind]error{
	KindValidation: ErrValidation,
	KindNetwork:    ErrNetwork,
	KindAuth:       ErrAuth,
	KindServer:     ErrServer,
	KindNotFound:   ErrNotFound,
}

// Error is a classified client failure.
type Error struct {
	Kind Kind
	// Op names the operation, e.g. "list", "upload", "scan", "delete".
	Op string
	// Status is the HTTP status code, zero when no response was received.
	Status int
	// Message is the user-facing text.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// New returns an *Error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Validation returns a preflight rejection.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: "network error", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when
// err is nil or unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the user-facing text for err. Unclassified errors fall
// back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
