package actor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actor"
	"github.com/nyric/actorio/rpc"
)

func echoModule(reg *rpc.Registry) {
	reg.Register("echo", "ping", &rpc.Descriptor{
		Kind: rpc.Value,
		Call: func(_ context.Context, args rpc.Args) (any, error) {
			var req struct{ Msg string }
			if err := args.Decode(&req); err != nil {
				return nil, err
			}
			return req.Msg, nil
		},
	})
}

func startActor(t *testing.T, cfg actor.Config) *actor.Actor {
	t.Helper()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	a, err := actor.New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { a.Cancel(context.Background()) })
	return a
}

func TestActorServesRegisteredFunction(t *testing.T) {
	server := startActor(t, actor.Config{Name: "server", Modules: []actor.Module{echoModule}})
	client := startActor(t, actor.Config{Name: "client"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	portal, err := client.Dial(ctx, server.ListenAddr())
	require.NoError(t, err)

	var reply string
	require.NoError(t, portal.Call(ctx, "echo", "ping", map[string]any{"Msg": "hi"}, &reply))
	require.Equal(t, "hi", reply)
}

func TestActorCancelDrainsPeers(t *testing.T) {
	server := startActor(t, actor.Config{Name: "server", Modules: []actor.Module{echoModule}})
	client := startActor(t, actor.Config{Name: "client"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.Dial(ctx, server.ListenAddr())
	require.NoError(t, err)

	require.False(t, server.Peers().Empty())

	done := make(chan struct{})
	go func() {
		server.Cancel(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("server cancel did not drain peers in time")
	}
	require.True(t, server.Peers().Empty())
}

func TestExclusiveSerializesNamedSection(t *testing.T) {
	a := startActor(t, actor.Config{Name: "solo"})

	release, err := a.Exclusive("res")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r2, err := a.Exclusive("res")
		require.NoError(t, err)
		close(acquired)
		r2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Exclusive acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	<-acquired
}
