package transport

import (
	"net"

	"github.com/pkg/errors"
)

// Listener accepts inbound TCP connections and hands each back out as a
// wire.Channel-implementing TCPChannel.
type Listener struct {
	ln net.Listener
}

// Listen binds addr ("host:port"; an empty host binds all interfaces).
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the bound address, useful when addr was ":0".
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept blocks for the next inbound connection.
func (l *Listener) Accept() (*TCPChannel, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewTCPChannel(conn), nil
}

// Close stops accepting new connections. It does not affect channels
// already handed out by Accept.
func (l *Listener) Close() error {
	return l.ln.Close()
}
