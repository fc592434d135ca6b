package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind is the closed set of failure classes a resolution can end in.
// Classification happens once, at the point where the raw failure is
// observed; downstream code switches on Kind, never on message text.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidSource
	KindDiscovery
	KindNotFound
	KindTimeout
	KindForbidden
	KindServerError
	KindMalformed
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSource:
		return "invalid_source"
	case KindDiscovery:
		return "discovery"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindForbidden:
		return "forbidden"
	case KindServerError:
		return "server_error"
	case KindMalformed:
		return "malformed"
	case KindExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Error is a classified resolution failure. Provider is empty when the
// failure is not tied to a single provider.
type Error struct {
	Kind     Kind
	Provider Provider
	err      error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

// NewError wraps err with a kind and an optional provider tag.
func NewError(kind Kind, provider Provider, err error) *Error {
	return &Error{Kind: kind, Provider: provider, err: err}
}

// Errorf is NewError with a formatted message.
func Errorf(kind Kind, provider Provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, err: fmt.Errorf(format, args...)}
}

// KindOf extracts the classification from an error chain.
// Unclassified errors report KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// RootKind walks the chain to the innermost classification. An
// exhausted-chain error keeps its final provider failure reachable
// this way.
func RootKind(err error) Kind {
	kind := KindUnknown
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			break
		}
		kind = de.Kind
		err = de.Unwrap()
	}
	return kind
}

// ClassifyStatus maps an upstream HTTP status to a failure kind.
func ClassifyStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// ClassifyTransport maps a transport-level error to a failure kind.
// Exceeded deadlines become KindTimeout so callers never hang-diagnose
// by string matching.
func ClassifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindUnknown
}
