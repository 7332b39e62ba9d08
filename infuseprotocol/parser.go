package infuseprotocol

import (
	"encoding/json"
	"strings"
)

// Envelope is the tag:payload structure of a single reply line.
type Envelope struct {
	Tag     string
	Payload string
}

// ParseEnvelope splits a reply line (terminator already stripped) into its
// tag and payload. Only the first separator is consumed, so JSON payloads
// may contain colons of their own.
func ParseEnvelope(line string) (Envelope, error) {
	tag, payload, found := strings.Cut(line, TagSeparator)
	if !found {
		return Envelope{}, newMissingTagError(line)
	}
	return Envelope{Tag: tag, Payload: payload}, nil
}

// Outcome dispatches on the envelope tag.
//
// An "ok" payload is decoded as JSON into a dynamically typed value
// (map[string]any, []any, string, float64, bool or nil). An "err" payload
// is returned verbatim. Any other tag is a ProtocolError.
func (e Envelope) Outcome() (Outcome, error) {
	switch e.Tag {
	case OKTag:
		var value any
		if err := json.Unmarshal([]byte(e.Payload), &value); err != nil {
			return Outcome{}, &DecodeError{Payload: e.Payload, Cause: err}
		}
		return Success(value), nil
	case ErrTag:
		return Failure(e.Payload), nil
	default:
		return Outcome{}, newUnknownTagError(e.Tag+TagSeparator+e.Payload, e.Tag)
	}
}

// ParseReply parses a complete reply line into an Outcome.
func ParseReply(line string) (Outcome, error) {
	env, err := ParseEnvelope(line)
	if err != nil {
		return Outcome{}, err
	}
	return env.Outcome()
}
