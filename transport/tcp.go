// Package transport provides the default Channel implementation: a TCP
// connection framed with a 4-byte big-endian length prefix, carrying
// JSON-encoded wire.Envelope frames, optionally snappy-compressed above a
// size threshold. The byte-level framing/codec is explicitly an external
// concern of the core (spec.md §1) — this package is that concern's
// concrete, swappable default.
package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/nyric/actorio/wire"
)

// compressThreshold is the minimum encoded frame size, in bytes, above
// which a frame is snappy-compressed before being sent.
const compressThreshold = 256

const (
	flagPlain     byte = 0
	flagSnappy    byte = 1
	flagTerminate byte = 2
)

// TCPChannel implements wire.Channel over a net.Conn.
type TCPChannel struct {
	conn      net.Conn
	w         *bufio.Writer
	r         *bufio.Reader
	writeMu   sync.Mutex
	remoteUID atomic.Value // string
	closed    atomic.Bool
}

// NewTCPChannel wraps an already-established net.Conn.
func NewTCPChannel(conn net.Conn) *TCPChannel {
	c := &TCPChannel{
		conn: conn,
		w:    bufio.NewWriter(conn),
		r:    bufio.NewReader(conn),
	}
	c.remoteUID.Store("")
	return c
}

// Dial connects to addr and wraps the resulting connection.
func Dial(ctx context.Context, addr string) (*TCPChannel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return NewTCPChannel(conn), nil
}

func (c *TCPChannel) Send(ctx context.Context, env *wire.Envelope) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
		defer c.conn.SetWriteDeadline(noDeadline)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if env == nil {
		return c.writeFrame(flagTerminate, nil)
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}

	flag := flagPlain
	if len(payload) > compressThreshold {
		payload = snappy.Encode(nil, payload)
		flag = flagSnappy
	}
	return c.writeFrame(flag, payload)
}

func (c *TCPChannel) writeFrame(flag byte, payload []byte) error {
	var hdr [5]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(payload)))
	hdr[4] = flag
	if _, err := c.w.Write(hdr[:]); err != nil {
		return errors.Wrap(err, "write frame header")
	}
	if len(payload) > 0 {
		if _, err := c.w.Write(payload); err != nil {
			return errors.Wrap(err, "write frame body")
		}
	}
	return c.w.Flush()
}

func (c *TCPChannel) Recv(ctx context.Context) (*wire.Envelope, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(dl)
		defer c.conn.SetReadDeadline(noDeadline)
	}

	var hdr [5]byte
	if _, err := io.ReadFull(c.r, hdr[:]); err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read frame header")
	}

	n := binary.BigEndian.Uint32(hdr[:4])
	flag := hdr[4]
	if flag == flagTerminate {
		return nil, nil
	}

	payload := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(c.r, payload); err != nil {
			return nil, errors.Wrap(err, "read frame body")
		}
	}

	if flag == flagSnappy {
		decoded, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, errors.Wrap(err, "decompress frame")
		}
		payload = decoded
	}

	var env wire.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Wrap(err, "unmarshal envelope")
	}
	return &env, nil
}

func (c *TCPChannel) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *TCPChannel) Connected() bool {
	return !c.closed.Load()
}

func (c *TCPChannel) RemoteUID() string {
	return c.remoteUID.Load().(string)
}

func (c *TCPChannel) SetRemoteUID(uid string) {
	c.remoteUID.Store(uid)
}

var noDeadline time.Time
