package infuseprotocol

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// aLongTimeAgo is a non-zero deadline in the past, used to abort blocked
// reads and writes when a context is cancelled.
var aLongTimeAgo = time.Unix(1, 0)

// Dialer holds options for connecting to an InfuseDB server.
//
// The zero value is usable: no timeout and no logging.
type Dialer struct {
	// Timeout bounds the TCP dial and the version handshake together.
	// Zero means no timeout beyond the context passed to DialContext.
	Timeout time.Duration

	// Logger receives debug records for the connection lifecycle and each
	// exchange. Nil disables logging.
	Logger *slog.Logger
}

// Client is a TCP client for an InfuseDB server.
//
// The connection is established and the server version read by Dial; after
// that every Submit writes one command line and reads exactly one reply
// line.
//
// Thread Safety:
// The protocol has no request identifiers, so a Client serializes
// exchanges with a mutex: concurrent Submit calls are answered one after
// the other, never interleaved. Close may be called from any goroutine and
// aborts an exchange that is blocked on the network.
type Client struct {
	mu sync.Mutex // held for the duration of one exchange

	conn    net.Conn
	reader  *lineReader
	version string
	closed  atomic.Bool

	sessionID string
	logger    *slog.Logger
}

// Dial connects to host:port and performs the version handshake.
func Dial(host string, port int) (*Client, error) {
	var d Dialer
	return d.DialContext(context.Background(), host, port)
}

// DialContext connects to host:port and performs the version handshake.
//
// The context and d.Timeout bound only the dial and the handshake; the
// returned client's connection has no deadline.
func (d *Dialer) DialContext(ctx context.Context, host string, port int) (*Client, error) {
	addr, err := Address(host, port)
	if err != nil {
		return nil, NewConnectionError("invalid address", err)
	}

	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	sessionID := uuid.NewString()
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("session", sessionID, "addr", addr)

	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		logger.Debug("dial failed", "error", err)
		return nil, NewConnectionError("failed to connect to "+addr, err)
	}

	c := &Client{
		conn:      conn,
		reader:    newLineReader(conn),
		sessionID: sessionID,
		logger:    logger,
	}

	if err := c.handshake(ctx); err != nil {
		conn.Close()
		logger.Debug("handshake failed", "error", err)
		return nil, err
	}

	logger.Debug("connected", "version", c.version)
	return c, nil
}

// handshake reads the version line the server sends right after accept.
func (c *Client) handshake(ctx context.Context) error {
	stop := c.bindContext(ctx)
	line, err := c.reader.ReadLine()
	stop()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &HandshakeError{Partial: line, Cause: err}
	}

	c.version = line
	return nil
}

// bindContext applies ctx's deadline and cancellation to the connection
// and returns a function that detaches it again.
func (c *Client) bindContext(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(aLongTimeAgo)
	})
	return func() {
		stop()
		c.conn.SetDeadline(time.Time{})
	}
}

// Version returns the version line announced by the server.
func (c *Client) Version() string {
	return c.version
}

// RemoteAddr returns the address of the connected server.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SessionID returns the identifier attached to this connection's log
// records.
func (c *Client) SessionID() string {
	return c.sessionID
}

// IsClosed returns true once Close has been called.
func (c *Client) IsClosed() bool {
	return c.closed.Load()
}

// Submit sends a command and waits for its reply.
//
// A reply tagged "err" is returned as a Failure outcome with a nil error.
// A non-nil error always means a local or transport malfunction:
// *ConnectionError, *ProtocolError, *DecodeError, ErrInvalidCommand or
// ErrClosed.
func (c *Client) Submit(cmd string) (Outcome, error) {
	return c.SubmitContext(context.Background(), cmd)
}

// SubmitContext is like Submit, with ctx bounding this exchange.
//
// If ctx ends while the exchange is on the wire, the reply can no longer
// be matched to its command, so the client closes itself and returns a
// *ConnectionError wrapping the context error.
func (c *Client) SubmitContext(ctx context.Context, cmd string) (Outcome, error) {
	return c.exchange(ctx, Command(cmd))
}

func (c *Client) exchange(ctx context.Context, cmd Command) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return Outcome{}, ErrClosed
	}
	if err := cmd.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	stop := c.bindContext(ctx)
	defer stop()

	if _, err := io.WriteString(c.conn, cmd.FormatLine()); err != nil {
		return Outcome{}, c.transportError(ctx, "failed to send command", err)
	}

	line, err := c.reader.ReadLine()
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return Outcome{}, NewConnectionError("connection closed by server", err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Outcome{}, newTruncatedError(line)
	default:
		return Outcome{}, c.transportError(ctx, "failed to read reply", err)
	}

	outcome, err := ParseReply(line)
	if err != nil {
		c.logger.Debug("bad reply", "command", string(cmd), "reply", line, "error", err)
		return Outcome{}, err
	}

	c.logger.Debug("exchange", "command", string(cmd), "kind", outcome.Kind.String())
	return outcome, nil
}

// transportError classifies a failed read or write. Failures caused by
// Close or by the exchange context leave the stream unusable.
func (c *Client) transportError(ctx context.Context, message string, err error) error {
	if c.closed.Load() {
		return ErrClosed
	}
	ctxErr := ctx.Err()
	if ctxErr == nil && errors.Is(err, os.ErrDeadlineExceeded) {
		ctxErr = context.DeadlineExceeded
	}
	if ctxErr != nil {
		c.logger.Debug("exchange aborted, closing", "error", ctxErr)
		c.Close()
		return NewConnectionError("exchange aborted", ctxErr)
	}
	return NewConnectionError(message, err)
}

// Get reads the value stored at key.
func (c *Client) Get(key string) (Outcome, error) {
	return c.exchange(context.Background(), NewGetCommand(key))
}

// Set stores value at key.
func (c *Client) Set(key string, value any) (Outcome, error) {
	cmd, err := NewSetCommand(key, value)
	if err != nil {
		return Outcome{}, err
	}
	return c.exchange(context.Background(), cmd)
}

// List lists the keys stored on the server.
func (c *Client) List() (Outcome, error) {
	return c.exchange(context.Background(), NewListCommand())
}

// Close releases the connection. Calling Close more than once is a no-op.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger.Debug("closing")
	return c.conn.Close()
}
