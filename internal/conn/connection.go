package conn

import (
	"bytes"
	"errors"
	"io"
	"net"
	"time"

	"github.com/shaikh-shahid/redistill/internal/command"
	"github.com/shaikh-shahid/redistill/internal/resp"
)

// DefaultBatchSize is the number of commands processed before a forced
// flush (§4.6), even if more pipelined frames are already buffered.
const DefaultBatchSize = 256

// DefaultIdleTimeout is the idle-connection timeout (§5): the connection
// is closed if no bytes arrive for this long.
const DefaultIdleTimeout = 300 * time.Second

// Options configures a Connection's pipeline behavior.
type Options struct {
	BatchSize   int
	IdleTimeout time.Duration
}

// Connection is the per-socket cooperative task: it owns a decoder over
// the socket, a dispatcher shared with every other connection, and a
// pooled write buffer borrowed on first reply and returned on close.
type Connection struct {
	conn          net.Conn
	dec           *resp.Decoder
	dispatcher    *command.Dispatcher
	pool          *BufferPool
	opt           Options
	authenticated bool
}

// New wires a freshly accepted socket into the pipeline. dispatcher is
// shared across all connections; pool is the server-wide write-buffer
// pool.
func New(c net.Conn, dispatcher *command.Dispatcher, pool *BufferPool, opt Options) *Connection {
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchSize
	}
	if opt.IdleTimeout <= 0 {
		opt.IdleTimeout = DefaultIdleTimeout
	}
	return &Connection{
		conn:       c,
		dec:        resp.NewDecoder(c),
		dispatcher: dispatcher,
		pool:       pool,
		opt:        opt,
	}
}

// Serve runs the main loop (§4.6) until the socket closes, a fatal framing
// error occurs, QUIT is received, or the idle timeout fires. It always
// closes the underlying connection before returning.
func (c *Connection) Serve() error {
	defer c.conn.Close()

	var buf *bytes.Buffer
	defer func() {
		if buf != nil {
			c.pool.Release(buf)
		}
	}()

	pending := 0
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.opt.IdleTimeout)); err != nil {
			return classifyReadErr(err)
		}

		frame, err := c.dec.Decode()
		if err != nil {
			if buf != nil {
				c.flush(buf)
			}
			return classifyReadErr(err)
		}

		if buf == nil {
			buf = c.pool.Acquire()
		}
		closeAfter, authed := c.dispatcher.Dispatch(buf, frame, c.authenticated)
		c.authenticated = authed
		pending++

		if closeAfter {
			c.flush(buf)
			return nil
		}

		if pending >= c.opt.BatchSize || !c.dec.Buffered() {
			if err := c.flush(buf); err != nil {
				return err
			}
			pending = 0
		}
	}
}

func (c *Connection) flush(buf *bytes.Buffer) error {
	if buf.Len() == 0 {
		return nil
	}
	_, err := c.conn.Write(buf.Bytes())
	buf.Reset()
	return err
}

// classifyReadErr turns a clean EOF at a frame boundary, or the
// io.ErrClosedPipe an in-memory pipe reports once its peer has closed, into
// nil (a normal connection close between commands, per §4.6 step 5), while
// leaving framing errors and idle-timeout deadline errors as errors the
// caller should log per §7's per-connection-fatal severity.
func classifyReadErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
