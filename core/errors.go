package core

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind identifies the failure class of a pipeline error. Transport and
// filesystem failures are wrapped in a typed Error so callers can branch on
// the kind with errors.As instead of matching message strings.
type ErrorKind string

const (
	KindInvalidURL        ErrorKind = "invalid_url"
	KindConnectionFailed  ErrorKind = "connection_failed"
	KindTimeout           ErrorKind = "timeout"
	KindHTTPError         ErrorKind = "http_error"
	KindIOError           ErrorKind = "io_error"
	KindSizeLimitExceeded ErrorKind = "size_limit_exceeded"
	KindParseError        ErrorKind = "parse_error"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind   ErrorKind
	Status int    // HTTP status, set only for KindHTTPError
	URL    string // subject URL, when one exists
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Kind == KindHTTPError {
		msg = fmt.Sprintf("%s: unexpected status %d", msg, e.Status)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Classify wraps a transport-level error with the matching kind. Deadline
// and net timeouts map to KindTimeout; everything else that reached the
// network layer maps to KindConnectionFailed.
func Classify(url string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	kind := KindConnectionFailed
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &ne) && ne.Timeout():
		kind = KindTimeout
	}
	return &Error{Kind: kind, URL: url, Err: err}
}
