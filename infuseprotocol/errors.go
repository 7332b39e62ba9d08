package infuseprotocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the InfuseDB protocol.
var (
	// ErrClosed indicates an operation was attempted after Close.
	ErrClosed = errors.New("client is closed")

	// ErrInvalidCommand indicates a command that cannot be framed as a
	// single protocol line.
	ErrInvalidCommand = errors.New("invalid command")
)

// ConnectionError represents a transport-level failure: the endpoint could
// not be reached, a write failed, or the server went away between replies.
type ConnectionError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("connection failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, cause error) error {
	return &ConnectionError{Message: message, Cause: cause}
}

// HandshakeError is returned when the stream ends before the server's
// version line has been received in full.
type HandshakeError struct {
	Partial string // Bytes received before the stream ended, if any
	Cause   error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("handshake failed: incomplete version line %q: %v", e.Partial, e.Cause)
	}
	return fmt.Sprintf("handshake failed: %v", e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *HandshakeError) Unwrap() error {
	return e.Cause
}

// ProtocolErrorKind categorizes malformed replies.
type ProtocolErrorKind int

const (
	// ErrKindMissingTag indicates a reply line without a tag separator.
	ErrKindMissingTag ProtocolErrorKind = iota
	// ErrKindUnknownTag indicates a tag other than "ok" or "err".
	ErrKindUnknownTag
	// ErrKindTruncated indicates the stream ended in the middle of a reply.
	ErrKindTruncated
)

// ProtocolError represents a reply line that does not follow the envelope
// format.
type ProtocolError struct {
	Kind ProtocolErrorKind
	Line string // The offending line, terminator stripped
	Tag  string // For ErrKindUnknownTag
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ErrKindMissingTag:
		return fmt.Sprintf("malformed reply %q: missing tag", e.Line)
	case ErrKindUnknownTag:
		return fmt.Sprintf("malformed reply %q: unknown tag '%s'", e.Line, e.Tag)
	case ErrKindTruncated:
		return fmt.Sprintf("truncated reply %q", e.Line)
	default:
		return fmt.Sprintf("malformed reply %q", e.Line)
	}
}

func newMissingTagError(line string) error {
	return &ProtocolError{Kind: ErrKindMissingTag, Line: line}
}

func newUnknownTagError(line, tag string) error {
	return &ProtocolError{Kind: ErrKindUnknownTag, Line: line, Tag: tag}
}

func newTruncatedError(partial string) error {
	return &ProtocolError{Kind: ErrKindTruncated, Line: partial}
}

// DecodeError is returned when an "ok" reply carries a payload that is not
// valid JSON. Payload holds the raw text for diagnostics.
type DecodeError struct {
	Payload string
	Cause   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid JSON payload %q: %v", e.Payload, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}
