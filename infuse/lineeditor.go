// =============================================================================
// lineeditor.go - Line Editor with Dual-Mode Operation
// =============================================================================
//
// The shell reads user input through a LineEditor that picks one of two
// input methods at startup:
//
//   - Interactive mode: ergochat/readline, with Emacs keybindings,
//     persistent history and Ctrl-R history search.
//   - Non-interactive mode: bufio.Scanner over stdin, for piped input
//     (echo "get name" | infuse) and Emacs comint buffers.
//
// History lives in ~/.infuse_history unless the config says otherwise.
// Only trimmed, non-empty lines are saved.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

// LineEditor wraps line editing with dual-mode operation.
type LineEditor struct {
	// interactive is true when stdin is a TTY and we are not inside Emacs.
	interactive bool

	// rl is the readline instance used in interactive mode; nil otherwise.
	rl *readline.Instance

	// scanner reads lines from stdin in non-interactive mode; nil otherwise.
	scanner *bufio.Scanner

	// out receives the prompt in non-interactive mode.
	out io.Writer
}

// NewLineEditor creates a new LineEditor with automatic mode detection.
//
// historyPath and historyLimit configure readline's persistent history and
// are ignored in non-interactive mode. An empty historyPath disables the
// history file.
func NewLineEditor(historyPath string, historyLimit int) *LineEditor {
	// GO CONCEPT: TTY Detection
	// -------------------------
	// golang.org/x/term.IsTerminal() reports whether a file descriptor is
	// connected to a terminal. os.Stdin.Fd() returns a uintptr, so it is
	// converted to int first. Emacs sets INSIDE_EMACS in every subprocess
	// and provides its own line editing, so readline stays out of the way
	// there.
	isInteractive := term.IsTerminal(int(os.Stdin.Fd())) &&
		os.Getenv("INSIDE_EMACS") == ""

	if !isInteractive {
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:  historyPath,
		HistoryLimit: historyLimit,

		// History is saved manually in GetLine so blank lines and
		// surrounding whitespace never reach the file.
		DisableAutoSaveHistory: true,

		Prompt: "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		return newScannerEditor(os.Stdin, os.Stdout)
	}

	return &LineEditor{
		interactive: true,
		rl:          rl,
	}
}

// newScannerEditor creates a non-interactive editor reading from in and
// printing prompts to out.
func newScannerEditor(in io.Reader, out io.Writer) *LineEditor {
	return &LineEditor{
		interactive: false,
		scanner:     bufio.NewScanner(in),
		out:         out,
	}
}

// GetLine displays prompt and reads one line of input, without its
// terminator. It returns io.EOF when input ends or the user presses Ctrl-C
// or Ctrl-D.
func (le *LineEditor) GetLine(prompt string) (string, error) {
	if le.interactive {
		return le.getInteractiveLine(prompt)
	}
	return le.getNonInteractiveLine(prompt)
}

func (le *LineEditor) getInteractiveLine(prompt string) (string, error) {
	le.rl.SetPrompt(prompt)

	line, err := le.rl.Readline()
	if err != nil {
		// GO CONCEPT: Sentinel Errors
		// ---------------------------
		// readline.ErrInterrupt is a package-level error value. Comparing
		// against it tells Ctrl-C apart from other failures. The shell
		// treats Ctrl-C like end of input.
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return "", err
	}

	if trimmed := strings.TrimSpace(line); trimmed != "" {
		le.rl.SaveToHistory(trimmed)
	}

	return line, nil
}

func (le *LineEditor) getNonInteractiveLine(prompt string) (string, error) {
	fmt.Fprint(le.out, prompt)

	if !le.scanner.Scan() {
		if err := le.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return le.scanner.Text(), nil
}

// Close releases the readline instance and restores the terminal. It is
// safe to call more than once.
func (le *LineEditor) Close() {
	if le.rl != nil {
		le.rl.Close()
		le.rl = nil
	}
}

// IsInteractive reports whether readline is in use.
func (le *LineEditor) IsInteractive() bool {
	return le.interactive
}
