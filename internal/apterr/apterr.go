// Package apterr classifies errors by the taxonomy the application uses to
// decide how to surface a failure: log it, reconnect, or tear down.
package apterr

import "fmt"

// Kind categorizes an error for dispatch without string matching.
type Kind int

const (
	// Unknown is the zero value for errors with no assigned kind.
	Unknown Kind = iota
	// Parse covers malformed command lines and malformed stanzas.
	Parse
	// Protocol covers iq error responses and unexpected stream state.
	Protocol
	// Transport covers TCP/TLS failures and clean disconnects.
	Transport
	// Usage covers unknown windows, unknown plugins, permission denied.
	Usage
	// Fatal covers panics in the view tree and terminal init failure.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Parse:
		return "parse"
	case Protocol:
		return "protocol"
	case Transport:
		return "transport"
	case Usage:
		return "usage"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an error with a Kind so callers can branch on category.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

// ParseErr wraps err as a Parse error.
func ParseErr(err error) error { return wrap(Parse, err) }

// ProtocolErr wraps err as a Protocol error.
func ProtocolErr(err error) error { return wrap(Protocol, err) }

// TransportErr wraps err as a Transport error.
func TransportErr(err error) error { return wrap(Transport, err) }

// UsageErr wraps err as a Usage error.
func UsageErr(err error) error { return wrap(Usage, err) }

// FatalErr wraps err as a Fatal error.
func FatalErr(err error) error { return wrap(Fatal, err) }

// KindOf returns the Kind of err, or Unknown if err was not produced by one
// of this package's constructors.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return Unknown
	}
	return e.Kind
}
