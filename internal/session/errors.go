package session

import "fmt"

// ErrorKind classifies session errors
type ErrorKind int

const (
	// ErrTransport is a network-level failure: dial refused, read/write
	// fault, unexpected close. Triggers reconnection.
	ErrTransport ErrorKind = iota
	// ErrSetupTimeout means the provider never acknowledged setup in time
	ErrSetupTimeout
	// ErrProvider is an application-level error payload from the provider
	ErrProvider
	// ErrClosed means the session was closed before the operation finished
	ErrClosed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTransport:
		return "transport"
	case ErrSetupTimeout:
		return "setup_timeout"
	case ErrProvider:
		return "provider"
	case ErrClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Error is a classified session error
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newTransportError(err error) *Error {
	return &Error{Kind: ErrTransport, Err: err}
}

func newProviderError(detail string) *Error {
	return &Error{Kind: ErrProvider, Detail: detail}
}
