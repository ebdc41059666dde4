// Package protocol defines the wire-level shapes shared by the catalog
// client and server: the connection descriptor, the per-reply status, and
// every request/reply pair of the administration surface.
package protocol

import "fmt"

// Connection describes how to reach the remote catalog service. It is
// computed once at client start and immutable afterwards.
type Connection struct {
	Network string
	Address string

	// ResolveForever pins the address resolution for the lifetime of the
	// binding. Set when the endpoint is a node hostname rather than a raw
	// address.
	ResolveForever bool
}

// StatusCode classifies the application-level outcome carried in a reply.
type StatusCode uint32

const (
	StatusOK StatusCode = iota
	StatusInvalidArgument
	StatusNotFound
	StatusAlreadyExists
	StatusInvalidSession
	StatusInternal
)

func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusNotFound:
		return "not found"
	case StatusAlreadyExists:
		return "already exists"
	case StatusInvalidSession:
		return "invalid session"
	case StatusInternal:
		return "internal"
	}
	return fmt.Sprintf("status(%d)", uint32(c))
}

// Status is the outcome the server embeds in every reply. A zero Status is
// success.
type Status struct {
	Code    StatusCode
	Message string
}

// OK reports whether the status carries no rejection.
func (s Status) OK() bool { return s.Code == StatusOK }

// Err converts a non-OK status into a *StatusError, nil otherwise.
func (s Status) Err() error {
	if s.OK() {
		return nil
	}
	return &StatusError{Code: s.Code, Message: s.Message}
}

// Errf builds a rejection status from a format string.
func Errf(code StatusCode, format string, args ...any) Status {
	return Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StatusError is an application-level rejection: the call reached the server
// and came back well-formed, but the server refused it.
type StatusError struct {
	Code    StatusCode
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Reply is implemented by every reply struct via ReplyHeader, so the call
// layer can translate the embedded status uniformly.
type Reply interface {
	ReplyStatus() Status
}

// ReplyHeader carries the status every reply starts with.
type ReplyHeader struct {
	Status Status
}

func (h *ReplyHeader) ReplyStatus() Status { return h.Status }
