package rpc_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/co"
	"github.com/nyric/actorio/peer"
	"github.com/nyric/actorio/rpc"
	"github.com/nyric/actorio/transport"
)

type goesSpawner struct{ g co.Goes }

func (s *goesSpawner) Spawn(f func()) { s.g.Go(f) }

type side struct {
	id       actorid.ID
	peers    *peer.Registry
	registry *rpc.Registry
	client   *rpc.Client
	invoker  *rpc.Invoker
	tasks    *rpc.TaskTable
	spawner  *goesSpawner
}

func newSide(name string) *side {
	reg := rpc.NewRegistry()
	id := actorid.New(name)
	return &side{
		id:       id,
		peers:    peer.NewRegistry(),
		registry: reg,
		client:   rpc.NewClient(id),
		invoker:  rpc.NewInvoker(reg),
		tasks:    rpc.NewTaskTable(),
		spawner:  &goesSpawner{},
	}
}

func (s *side) drive(ch *transport.TCPChannel, remote actorid.ID) {
	loop := &rpc.MessageLoop{
		Self:     s.id,
		RemoteID: remote,
		Channel:  ch,
		Peers:    s.peers,
		Client:   s.client,
		Invoker:  s.invoker,
		Tasks:    s.tasks,
		Spawner:  s.spawner,
	}
	s.spawner.Spawn(func() { loop.Run(context.Background()) })
}

func dialedPair(t *testing.T) (*transport.TCPChannel, *transport.TCPChannel, func()) {
	t.Helper()
	ln, err := transport.Listen("127.0.0.1:0")
	require.NoError(t, err)

	acceptedCh := make(chan *transport.TCPChannel, 1)
	go func() {
		c, _ := ln.Accept()
		acceptedCh <- c
	}()
	client, err := transport.Dial(context.Background(), ln.Addr().String())
	require.NoError(t, err)
	server := <-acceptedCh

	return client, server, func() {
		client.Close()
		server.Close()
		ln.Close()
	}
}

func handshakeAndDrive(t *testing.T, caller, responder *side, callerCh, responderCh *transport.TCPChannel) {
	t.Helper()
	type res struct {
		id  actorid.ID
		err error
	}
	cDone := make(chan res, 1)
	rDone := make(chan res, 1)
	go func() {
		id, err := peer.Handshake(context.Background(), callerCh, caller.id)
		cDone <- res{id, err}
	}()
	go func() {
		id, err := peer.Handshake(context.Background(), responderCh, responder.id)
		rDone <- res{id, err}
	}()
	c := <-cDone
	r := <-rDone
	require.NoError(t, c.err)
	require.NoError(t, r.err)

	caller.peers.Register(r.id, callerCh)
	responder.peers.Register(c.id, responderCh)

	caller.drive(callerCh, r.id)
	responder.drive(responderCh, c.id)
}

func TestCallRoundTrip(t *testing.T) {
	callerCh, responderCh, cleanup := dialedPair(t)
	defer cleanup()

	caller := newSide("caller")
	responder := newSide("responder")

	responder.registry.Register("math", "add", &rpc.Descriptor{
		Kind: rpc.Value,
		Call: func(_ context.Context, args rpc.Args) (any, error) {
			var req struct{ A, B float64 }
			if err := args.Decode(&req); err != nil {
				return nil, err
			}
			return req.A + req.B, nil
		},
	})

	handshakeAndDrive(t, caller, responder, callerCh, responderCh)

	portal := rpc.NewPortal(caller.client, callerCh)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var sum float64
	err := portal.Call(ctx, "math", "add", map[string]any{"A": 2, "B": 3}, &sum)
	require.NoError(t, err)
	require.Equal(t, float64(5), sum)
}

func TestCallPropagatesError(t *testing.T) {
	callerCh, responderCh, cleanup := dialedPair(t)
	defer cleanup()

	caller := newSide("caller")
	responder := newSide("responder")

	responder.registry.Register("math", "boom", &rpc.Descriptor{
		Kind: rpc.Value,
		Call: func(_ context.Context, _ rpc.Args) (any, error) {
			return nil, fmt.Errorf("kaboom")
		},
	})

	handshakeAndDrive(t, caller, responder, callerCh, responderCh)

	portal := rpc.NewPortal(caller.client, callerCh)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := portal.Call(ctx, "math", "boom", nil, nil)
	require.ErrorContains(t, err, "kaboom")
}

func TestStreamRoundTrip(t *testing.T) {
	callerCh, responderCh, cleanup := dialedPair(t)
	defer cleanup()

	caller := newSide("caller")
	responder := newSide("responder")

	responder.registry.Register("math", "count_to", &rpc.Descriptor{
		Kind: rpc.Stream,
		Stream: func(_ context.Context, args rpc.Args, emit rpc.Emit) error {
			var req struct{ N int }
			if err := args.Decode(&req); err != nil {
				return err
			}
			for i := 1; i <= req.N; i++ {
				if err := emit(i); err != nil {
					return err
				}
			}
			return nil
		},
	})

	handshakeAndDrive(t, caller, responder, callerCh, responderCh)

	portal := rpc.NewPortal(caller.client, callerCh)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := portal.StreamCall(ctx, "math", "count_to", map[string]any{"N": 3})
	require.NoError(t, err)
	defer stream.Close()

	var got []int
	for {
		var v int
		done, err := stream.Next(ctx, &v)
		require.NoError(t, err)
		if done {
			break
		}
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestUnknownFunctionReturnsError(t *testing.T) {
	callerCh, responderCh, cleanup := dialedPair(t)
	defer cleanup()

	caller := newSide("caller")
	responder := newSide("responder")
	handshakeAndDrive(t, caller, responder, callerCh, responderCh)

	portal := rpc.NewPortal(caller.client, callerCh)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := portal.Call(ctx, "math", "nosuch", nil, nil)
	require.Error(t, err)
}
