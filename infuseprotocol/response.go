package infuseprotocol

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind discriminates the two variants of an Outcome.
type OutcomeKind int

const (
	// OutcomeSuccess indicates the server accepted the command.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure indicates the server rejected the command.
	OutcomeFailure
)

// String returns the wire tag for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return OKTag
	case OutcomeFailure:
		return ErrTag
	default:
		return "unknown"
	}
}

// Outcome is the result of one command submission.
//
// Exactly one variant is populated: Value for OutcomeSuccess, Message for
// OutcomeFailure. A Failure is a normal reply from the server, not a local
// error; local malfunctions are reported through the error return of
// Client.Submit instead.
type Outcome struct {
	Kind    OutcomeKind
	Value   any    // Decoded JSON payload (Success only)
	Message string // Raw error text (Failure only)
}

// Success creates a successful outcome holding a decoded value.
func Success(value any) Outcome {
	return Outcome{Kind: OutcomeSuccess, Value: value}
}

// Failure creates a failed outcome holding the server's message.
func Failure(message string) Outcome {
	return Outcome{Kind: OutcomeFailure, Message: message}
}

// IsSuccess returns true if this is a Success outcome.
func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess
}

// IsFailure returns true if this is a Failure outcome.
func (o Outcome) IsFailure() bool {
	return o.Kind == OutcomeFailure
}

// Format returns the outcome formatted as a reply line, without terminator.
// Useful for test servers and logging.
func (o Outcome) Format() string {
	switch o.Kind {
	case OutcomeSuccess:
		data, err := json.Marshal(o.Value)
		if err != nil {
			return ErrTag + TagSeparator + err.Error()
		}
		return OKTag + TagSeparator + string(data)
	case OutcomeFailure:
		return ErrTag + TagSeparator + o.Message
	default:
		return ErrTag + TagSeparator + "unknown outcome"
	}
}

// String renders the outcome for display. Strings are shown as-is and
// other values as compact JSON.
func (o Outcome) String() string {
	if o.IsFailure() {
		return "error: " + o.Message
	}
	return FormatValue(o.Value)
}

// FormatValue renders a decoded JSON value for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
