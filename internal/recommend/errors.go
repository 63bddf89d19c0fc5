// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors.
type Kind int

// Recommend never fails on an unknown seed or user: unknown seeds are
// dropped and unknown users fall through to the content ranker. KindNotFound
// is therefore reserved for explicit lookups by id. No engine operation
// returns it today, but the API maps it to 404 so a future lookup endpoint
// gets the right status without touching the error mapping.
const (
	KindUnknown Kind = iota
	KindNotFound
	KindEmptyInput
	KindNoSignal
	KindDegenerateRange
	KindRebuildFailure
)

// String returns the snake_case name used in logs and API error codes.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindEmptyInput:
		return "empty_input"
	case KindNoSignal:
		return "no_signal"
	case KindDegenerateRange:
		return "degenerate_range"
	case KindRebuildFailure:
		return "rebuild_failure"
	default:
		return "unknown"
	}
}

// Error is a classified engine error.
type Error struct {
	Kind Kind
	Op   string
	ID   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrEmptyInput     = &Error{Kind: KindEmptyInput}
	ErrNoSignal       = &Error{Kind: KindNoSignal}
	ErrRebuildFailure = &Error{Kind: KindRebuildFailure}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.ID == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}
