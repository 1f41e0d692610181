// Package failure classifies errors returned by the resource client into the
// kinds the lifecycle coordinator reacts to.
package failure

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is the internal error kind of a failed operation.
type Kind string

const (
	KindValidation Kind = "validation" // payload rejected by the remote side
	KindNotFound   Kind = "not_found"  // target no longer exists
	KindTransport  Kind = "transport"  // network, timeout or anything unexpected
)

// Shown instead of transport error details
const (
	TransportMessage = "network error, please try again"
	ServerMessage    = "server error, please try again later"
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation returns a failure whose message is shown to the user verbatim.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound returns a failure for a target that no longer exists.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Transport wraps a network or otherwise unexpected error.
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindTransport
}

// UserMessage returns the text that may be shown to a user for err.
// Transport failures never leak their details: connection problems get the
// retry hint, anything else a generic server error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Kind != KindTransport {
		if fe.Message != "" {
			return fe.Message
		}
	}
	if KindOf(err) == KindTransport {
		if IsNetworkError(err) {
			return TransportMessage
		}
		return ServerMessage
	}
	return err.Error()
}

// IsNetworkError checks if the error looks like a connection or timeout error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "client.timeout exceeded") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "unexpected eof")
}
