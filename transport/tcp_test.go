package transport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/wire"
)

func TestTCPChannelRoundTrip(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptedCh := make(chan *TCPChannel, 1)
	go func() {
		c, err := ln.Accept()
		require.NoError(t, err)
		acceptedCh <- c
	}()

	client, err := Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server := <-acceptedCh
	defer server.Close()

	id := actorid.New("worker")
	require.NoError(t, client.Send(context.Background(), &wire.Envelope{Identity: &id}))

	got, err := server.Recv(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got.Identity)
	require.Equal(t, id, *got.Identity)
}

func TestTCPChannelCompressesLargePayloads(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptedCh := make(chan *TCPChannel, 1)
	go func() {
		c, err := ln.Accept()
		require.NoError(t, err)
		acceptedCh <- c
	}()

	client, err := Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()
	server := <-acceptedCh
	defer server.Close()

	big := strings.Repeat("x", 4096)
	env := &wire.Envelope{Error: big}
	require.NoError(t, client.Send(context.Background(), env))

	got, err := server.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, big, got.Error)
}

func TestTCPChannelTerminatorSentinel(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	acceptedCh := make(chan *TCPChannel, 1)
	go func() {
		c, err := ln.Accept()
		require.NoError(t, err)
		acceptedCh <- c
	}()

	client, err := Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	server := <-acceptedCh
	defer server.Close()

	require.NoError(t, client.Send(context.Background(), nil))
	client.Close()

	got, err := server.Recv(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
}
