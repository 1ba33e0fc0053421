package model

import (
	"errors"
	"fmt"
	"time"
)

// WaitingForInputError means the input is a valid prefix of a request; ask again later.
type WaitingForInputError struct {
	Hint string
}

func (e *WaitingForInputError) Error() string {
	return e.Hint
}

// ParseError means the input is invalid at a specific token.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s, but got: %q", e.Reason, e.Token)
}

// NetworkError is a transport or HTTP status failure. StatusCode is 0 for transport errors.
type NetworkError struct {
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("quote service unreachable: %v", e.Err)
		}
		return "quote service unreachable"
	}
	return fmt.Sprintf("quote service returned status %d", e.StatusCode)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// QuoteError is an application-level error reported by the quote service, or any other
// non-network fetch failure.
type QuoteError struct {
	Message string
}

func (e *QuoteError) Error() string {
	return e.Message
}

type ErrorKind string

const (
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindGeneric ErrorKind = "generic"
)

// NewErrorRecord classifies a fetch failure into the slot it belongs to.
func NewErrorRecord(err error, now time.Time) *ErrorRecord {
	var ne *NetworkError
	if errors.As(err, &ne) {
		rec := &ErrorRecord{Kind: ErrorKindNetwork, StatusCode: ne.StatusCode, RecordedAt: now}
		if ne.Err != nil {
			rec.Message = ne.Err.Error()
		}
		return rec
	}
	return &ErrorRecord{Kind: ErrorKindGeneric, Message: err.Error(), RecordedAt: now}
}

// ErrorRecord is a fetch failure parked in the store until the next foreground call.
type ErrorRecord struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Err turns the record back into the typed error the foreground reports.
func (r *ErrorRecord) Err() error {
	if r.Kind == ErrorKindNetwork {
		ne := &NetworkError{StatusCode: r.StatusCode}
		if r.Message != "" {
			ne.Err = recordedError(r.Message)
		}
		return ne
	}
	return &QuoteError{Message: r.Message}
}

type recordedError string

func (e recordedError) Error() string { return string(e) }
