package arbiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actor"
	"github.com/nyric/actorio/arbiter"
)

func startArbiter(t *testing.T) *arbiter.Arbiter {
	t.Helper()
	arb, err := arbiter.New(actor.Config{Name: "arbiter", ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	require.NoError(t, arb.Start(context.Background()))
	t.Cleanup(func() { arb.Cancel(context.Background()) })
	return arb
}

func startWorker(t *testing.T, name, arbiterAddr string) *actor.Actor {
	t.Helper()
	a, err := actor.New(actor.Config{Name: name, ListenAddr: "127.0.0.1:0", ArbiterAddr: arbiterAddr})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(func() { a.Cancel(context.Background()) })
	return a
}

func TestWorkerRegistersAndArbiterFindsIt(t *testing.T) {
	arb := startArbiter(t)
	worker := startWorker(t, "w", arb.ListenAddr())

	require.Eventually(t, func() bool {
		addr, ok := arb.Registry.Find("w")
		return ok && addr == worker.ListenAddr()
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorkerUnregistersOnCancel(t *testing.T) {
	arb := startArbiter(t)
	a, err := actor.New(actor.Config{Name: "w2", ListenAddr: "127.0.0.1:0", ArbiterAddr: arb.ListenAddr()})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))

	require.Eventually(t, func() bool {
		_, ok := arb.Registry.Find("w2")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	a.Cancel(context.Background())

	require.Eventually(t, func() bool {
		_, ok := arb.Registry.Find("w2")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWaitForActorWakesOnRegistration(t *testing.T) {
	arb := startArbiter(t)
	portal := arbiter.Local(arb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resultCh := make(chan []string, 1)
	go func() {
		var addrs []string
		err := portal.Call(ctx, "arbiter", "wait_for_actor", map[string]any{"name": "late"}, &addrs)
		if err != nil {
			resultCh <- nil
			return
		}
		resultCh <- addrs
	}()

	time.Sleep(50 * time.Millisecond)
	startWorker(t, "late", arb.ListenAddr())

	select {
	case addrs := <-resultCh:
		require.NotEmpty(t, addrs)
	case <-time.After(2 * time.Second):
		t.Fatal("wait_for_actor did not wake up")
	}
}

func TestFindActorReturnsNoEntryAsNil(t *testing.T) {
	arb := startArbiter(t)
	portal := arbiter.Local(arb)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var addr *string
	err := portal.Call(ctx, "arbiter", "find_actor", map[string]any{"name": "nobody"}, &addr)
	require.NoError(t, err)
	require.Nil(t, addr)
}
