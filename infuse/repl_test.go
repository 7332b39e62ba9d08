// =============================================================================
// repl_test.go - Tests for the REPL Loop (repl.go)
// =============================================================================
//
// Unit tests drive runREPL with a scripted input source and a fake client.
// Integration tests at the bottom connect a real infuseprotocol.Client to
// the mock server from mockserver_test.go.
//
// =============================================================================

package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infusedb/infuse-cli/infuseprotocol"
)

// scriptedInput returns its lines in order, then io.EOF.
type scriptedInput struct {
	lines   []string
	prompts []string
	err     error // returned instead of io.EOF when set
}

func (s *scriptedInput) GetLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// fakeClient answers commands from a function and records them.
type fakeClient struct {
	reply func(cmd string) (infuseprotocol.Outcome, error)
	sent  []string
}

func (f *fakeClient) Submit(cmd string) (infuseprotocol.Outcome, error) {
	f.sent = append(f.sent, cmd)
	return f.reply(cmd)
}

func okClient(value any) *fakeClient {
	return &fakeClient{reply: func(string) (infuseprotocol.Outcome, error) {
		return infuseprotocol.Success(value), nil
	}}
}

// runScripted runs the REPL over lines and returns stdout, stderr and the
// loop's result.
func runScripted(client submitter, lines ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	err := runREPL(client, &scriptedInput{lines: lines}, &out, &errOut)
	return out.String(), errOut.String(), err
}

// =============================================================================
// Loop Control
// =============================================================================

func TestREPLExitIsNeverSent(t *testing.T) {
	client := okClient(true)

	_, _, err := runScripted(client, "get a", "exit", "get b")
	require.NoError(t, err)

	assert.Equal(t, []string{"get a"}, client.sent)
}

func TestREPLExitWithSurroundingSpace(t *testing.T) {
	client := okClient(true)

	_, _, err := runScripted(client, "  exit  ")
	require.NoError(t, err)

	assert.Empty(t, client.sent)
}

func TestREPLExitIsCaseSensitive(t *testing.T) {
	client := okClient(true)

	_, _, err := runScripted(client, "EXIT")
	require.NoError(t, err)

	assert.Equal(t, []string{"EXIT"}, client.sent)
}

func TestREPLEndsOnEOF(t *testing.T) {
	client := okClient(true)

	out, _, err := runScripted(client, "get a")
	require.NoError(t, err)

	assert.Equal(t, "true\n\n", out)
}

func TestREPLSkipsBlankLines(t *testing.T) {
	client := okClient(true)

	_, _, err := runScripted(client, "", "   ", "\t", "list")
	require.NoError(t, err)

	assert.Equal(t, []string{"list"}, client.sent)
}

func TestREPLForwardsInputVerbatim(t *testing.T) {
	client := okClient(true)

	_, _, err := runScripted(client, "  set k  \"a b\" ")
	require.NoError(t, err)

	assert.Equal(t, []string{"  set k  \"a b\" "}, client.sent)
}

func TestREPLShowsPrompt(t *testing.T) {
	input := &scriptedInput{lines: []string{"get a"}}
	var out, errOut bytes.Buffer

	require.NoError(t, runREPL(okClient(1), input, &out, &errOut))

	assert.Equal(t, []string{"> ", "> "}, input.prompts)
}

func TestREPLInputError(t *testing.T) {
	boom := errors.New("terminal gone")
	input := &scriptedInput{err: boom}
	var out, errOut bytes.Buffer

	err := runREPL(okClient(1), input, &out, &errOut)
	assert.ErrorIs(t, err, boom)
}

// =============================================================================
// Output
// =============================================================================

func TestREPLPrintsOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  infuseprotocol.Outcome
		expected string
	}{
		{"string", infuseprotocol.Success("Alberto Ruiz"), "Alberto Ruiz\n"},
		{"object", infuseprotocol.Success(map[string]any{"a": float64(1)}), "{\"a\":1}\n"},
		{"array", infuseprotocol.Success([]any{"x", float64(2)}), "[\"x\",2]\n"},
		{"null", infuseprotocol.Success(nil), "null\n"},
		{"failure", infuseprotocol.Failure("boom"), "error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			printOutcome(&out, tt.outcome)
			assert.Equal(t, tt.expected, out.String())
		})
	}
}

func TestREPLFailureGoesToStdout(t *testing.T) {
	client := &fakeClient{reply: func(string) (infuseprotocol.Outcome, error) {
		return infuseprotocol.Failure("key not found"), nil
	}}

	out, errOut, err := runScripted(client, "get missing", "exit")
	require.NoError(t, err)

	assert.Equal(t, "error: key not found\n", out)
	assert.Empty(t, errOut)
}

func TestREPLLocalErrorsAreLabelledAndSurvivable(t *testing.T) {
	client := &fakeClient{reply: func(cmd string) (infuseprotocol.Outcome, error) {
		switch cmd {
		case "bad-tag":
			return infuseprotocol.ParseReply("weird:1")
		case "bad-json":
			return infuseprotocol.ParseReply("ok:not-json")
		default:
			return infuseprotocol.Success("fine"), nil
		}
	}}

	out, errOut, err := runScripted(client, "bad-tag", "bad-json", "get a", "exit")
	require.NoError(t, err)

	assert.Equal(t, "fine\n", out)
	assert.Equal(t, 2, strings.Count(errOut, "client error: "))
	assert.NotContains(t, out, "error:")
	assert.Equal(t, []string{"bad-tag", "bad-json", "get a"}, client.sent)
}

func TestREPLStopsOnFatalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"connection", infuseprotocol.NewConnectionError("connection closed by server", io.EOF)},
		{"closed", infuseprotocol.ErrClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{reply: func(string) (infuseprotocol.Outcome, error) {
				return infuseprotocol.Outcome{}, tt.err
			}}

			_, errOut, err := runScripted(client, "get a", "get b")

			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, errOut, "client error: ")
			assert.Equal(t, []string{"get a"}, client.sent)
		})
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, isFatal(infuseprotocol.NewConnectionError("x", nil)))
	assert.True(t, isFatal(infuseprotocol.ErrClosed))
	assert.False(t, isFatal(infuseprotocol.ErrInvalidCommand))
	assert.False(t, isFatal(&infuseprotocol.DecodeError{Payload: "x"}))
	assert.False(t, isFatal(&infuseprotocol.ProtocolError{Line: "x"}))
}

// =============================================================================
// REPL Integration Tests (with Mock Server)
// =============================================================================

func TestREPLWithMockServer(t *testing.T) {
	ms := startMockServer(t, nil)

	client, err := infuseprotocol.Dial("127.0.0.1", ms.port())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, mockVersion, client.Version())

	input := "get name\nget user\nget nothing\nbroken\ngarbled\nlist\nexit\nget name\n"
	var prompts, out, errOut bytes.Buffer
	editor := newScannerEditor(strings.NewReader(input), &prompts)

	require.NoError(t, runREPL(client, editor, &out, &errOut))

	assert.Equal(t, strings.Join([]string{
		"Alberto Ruiz",
		`{"name":"Alberto","tags":["a","b:c"]}`,
		"error: unknown command",
		`["name","user"]`,
	}, "\n")+"\n", out.String())

	assert.Equal(t, 2, strings.Count(errOut.String(), "client error: "))
	assert.Equal(t, []string{"get name", "get user", "get nothing", "broken", "garbled", "list"}, ms.commands())
	assert.Equal(t, strings.Repeat("> ", 7), prompts.String())
}

func TestREPLEndsWhenClientClosed(t *testing.T) {
	ms := startMockServer(t, nil)

	client, err := infuseprotocol.Dial("127.0.0.1", ms.port())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	var out, errOut bytes.Buffer
	editor := newScannerEditor(strings.NewReader("get name\nlist\n"), io.Discard)

	err = runREPL(client, editor, &out, &errOut)
	assert.ErrorIs(t, err, infuseprotocol.ErrClosed)
	assert.Empty(t, ms.commands())
}
