package infuseprotocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// lineReader frames a byte stream into protocol lines.
//
// A line may arrive across any number of underlying reads; ReadLine only
// returns once the terminator has been seen. The read position always
// ends up at the start of the next line.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// ReadLine returns the next line with its terminator (and a single
// preceding carriage return) stripped.
//
// When the stream ends before a terminator, the bytes received so far are
// returned together with io.EOF if nothing was read, or
// io.ErrUnexpectedEOF if the line was cut short. Other read errors are
// passed through unchanged.
func (lr *lineReader) ReadLine() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", io.EOF
			}
			return line, io.ErrUnexpectedEOF
		}
		return line, err
	}
	return trimTerminator(line), nil
}

// trimTerminator strips the trailing "\n" and, if present, one "\r".
func trimTerminator(line string) string {
	line = strings.TrimSuffix(line, LineTerminator)
	return strings.TrimSuffix(line, "\r")
}
