package translation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies translation failures
type ErrorKind int

const (
	InvalidRequest ErrorKind = iota + 1
	Unauthorized
	UnsupportedLanguage
	RateLimited
	Timeout
	NetworkFault
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidRequest:
		return "InvalidRequest"
	case Unauthorized:
		return "Unauthorized"
	case UnsupportedLanguage:
		return "UnsupportedLanguage"
	case RateLimited:
		return "RateLimited"
	case Timeout:
		return "Timeout"
	case NetworkFault:
		return "NetworkFault"
	default:
		return "Unknown"
	}
}

// Transient reports whether a retry may succeed
func (k ErrorKind) Transient() bool {
	return k == RateLimited || k == Timeout || k == NetworkFault
}

// Error is returned by Client and by backends
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("translation: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("translation: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrInvalidRequest      = &Error{Kind: InvalidRequest}
	ErrUnauthorized        = &Error{Kind: Unauthorized}
	ErrUnsupportedLanguage = &Error{Kind: UnsupportedLanguage}
	ErrRateLimited         = &Error{Kind: RateLimited}
	ErrTimeout             = &Error{Kind: Timeout}
	ErrNetworkFault        = &Error{Kind: NetworkFault}
)

// KindOf extracts the kind of err, 0 if it is not a translation error
func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	return KindOf(err).Transient()
}

// KindForStatus maps an HTTP status code from a backend to an error kind
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Unauthorized
	case status == http.StatusTooManyRequests:
		return RateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return Timeout
	case status >= 500:
		return NetworkFault
	case status >= 400:
		return InvalidRequest
	default:
		return NetworkFault
	}
}

// wrapContextError maps context errors; other errors become NetworkFault.
// Cancellation is returned unchanged since it says nothing about the backend.
func wrapContextError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Timeout, Err: err}
	}
	return &Error{Kind: NetworkFault, Err: err}
}
