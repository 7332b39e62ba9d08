package infuseprotocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is a single request line. Its syntax is defined by the server;
// the protocol only requires that it fits on one line.
type Command string

// Validate checks that the command can be framed as exactly one line.
func (c Command) Validate() error {
	if strings.ContainsAny(string(c), "\r\n") {
		return fmt.Errorf("%w: %q contains a line terminator", ErrInvalidCommand, string(c))
	}
	return nil
}

// FormatLine returns the command with the line terminator appended, ready
// for transmission.
func (c Command) FormatLine() string {
	return string(c) + LineTerminator
}

// NewGetCommand creates a command that reads the value stored at key.
func NewGetCommand(key string) Command {
	return Command("get " + key)
}

// NewSetCommand creates a command that stores value at key. The value is
// encoded as JSON, which is how the server parses literals.
func NewSetCommand(key string, value any) (Command, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode value for %q: %w", key, err)
	}
	return Command(fmt.Sprintf("set %s %s", key, data)), nil
}

// NewListCommand creates a command that lists the stored keys.
func NewListCommand() Command {
	return Command("list")
}
