// =============================================================================
// repl.go - Read-Eval-Print Loop
// =============================================================================
//
// The REPL forwards every input line to the server and prints the outcome:
//
//	> get name
//	Alberto Ruiz
//	> get missing
//	error: key not found
//	> exit
//
// "exit" is handled locally and never sent. Server-side failures print as
// "error: <message>" on stdout. Local malfunctions (transport, protocol,
// decoding) print as "client error: <err>" on stderr so the two can never
// be confused.
//
// =============================================================================

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/infusedb/infuse-cli/infuseprotocol"
	"github.com/infusedb/infuse-cli/internal/logger"
)

const (
	// prompt is shown before every input line.
	prompt = "> "

	// exitCommand ends the session without being sent to the server.
	exitCommand = "exit"
)

// GO CONCEPT: Small Interfaces at the Point of Use
// ------------------------------------------------
// The REPL only needs two things: something that submits commands and
// something that reads lines. Declaring those as one-method interfaces
// here, where they are used, lets tests pass in fakes while main.go
// passes the real *infuseprotocol.Client and *LineEditor. Neither type
// has to declare that it implements anything.

// submitter sends one command and returns its outcome.
type submitter interface {
	Submit(cmd string) (infuseprotocol.Outcome, error)
}

// lineSource reads one line of user input.
type lineSource interface {
	GetLine(prompt string) (string, error)
}

// runREPL reads commands until exit, end of input, or a transport failure.
// It returns nil on a normal exit and the fatal error otherwise.
func runREPL(client submitter, input lineSource, out, errOut io.Writer) error {
	for {
		line, err := input.GetLine(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == exitCommand {
			return nil
		}

		outcome, err := client.Submit(line)
		if err != nil {
			fmt.Fprintf(errOut, "client error: %v\n", err)
			if isFatal(err) {
				logger.Error("session ended", "error", err)
				return err
			}
			logger.Warning("command failed locally", "command", line, "error", err)
			continue
		}

		printOutcome(out, outcome)
	}
}

// printOutcome writes a Success value or a Failure message.
func printOutcome(out io.Writer, outcome infuseprotocol.Outcome) {
	if outcome.IsFailure() {
		fmt.Fprintf(out, "error: %s\n", outcome.Message)
		return
	}
	fmt.Fprintln(out, infuseprotocol.FormatValue(outcome.Value))
}

// isFatal reports whether err leaves the client unusable.
func isFatal(err error) bool {
	var connErr *infuseprotocol.ConnectionError
	return errors.As(err, &connErr) || errors.Is(err, infuseprotocol.ErrClosed)
}
