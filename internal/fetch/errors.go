package fetch

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind partitions fetch failures for run counters. The pipeline treats every
// kind the same way (skip the URL), so kinds exist for logging, not control
// flow.
type Kind string

const (
	KindNetwork Kind = "NETWORK"
	KindStatus  Kind = "STATUS"
	KindParse   Kind = "PARSE"
)

// Error is a failed fetch or decode of one URL. It carries a stack from the
// point of failure so debug logs can place rare errors without a reproducer.
type Error struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
	stack  []byte
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s %s: http %d", e.Kind, e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.URL)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StackTrace() []byte { return e.stack }

func newError(kind Kind, url string, status int, err error) *Error {
	var stack []byte
	if se, ok := err.(*goerrors.Error); ok {
		stack = se.Stack()
	} else if err != nil {
		stack = goerrors.Wrap(err, 2).Stack()
	} else {
		stack = goerrors.New(string(kind)).Stack()
	}
	return &Error{Kind: kind, URL: url, Status: status, Err: err, stack: stack}
}

// NetworkError wraps a transport-level failure (dial, TLS, timeout, read).
func NetworkError(url string, err error) *Error {
	return newError(KindNetwork, url, 0, err)
}

// StatusError records a non-2xx response. The body is discarded; there is
// no retry.
func StatusError(url string, status int) *Error {
	return newError(KindStatus, url, status, nil)
}

// ParseError wraps a malformed payload (feed markup, API JSON).
func ParseError(url string, err error) *Error {
	return newError(KindParse, url, 0, err)
}

// KindOf extracts the failure kind, or "" when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
