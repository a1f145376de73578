package peer

import (
	"math/rand"
	"testing"

	"github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/transport"
)

// TestRegistryEmptyIffNoMorePeersFuzz drives random register/drop
// sequences across a small pool of peers and channels and checks
// invariant 3 of spec.md §3 at every step: NoMorePeers is signalled iff
// the registry holds no peer entries.
func TestRegistryEmptyIffNoMorePeersFuzz(t *testing.T) {
	fz := fuzz.New().NilChance(0)

	const numPeers = 3
	ids := make([]actorid.ID, numPeers)
	for i := range ids {
		ids[i] = actorid.New("peer")
	}

	// One real channel pair per peer slot, reused across every trial and
	// every register/drop in that trial — Registry only needs a
	// comparable wire.Channel, never reads or writes through it here.
	channels := make([]*channelPair, numPeers)
	for i := range channels {
		client, server, cleanup := localPair(t)
		t.Cleanup(cleanup)
		channels[i] = &channelPair{client: client, server: server}
	}

	for trial := 0; trial < 30; trial++ {
		var seed uint64
		fz.Fuzz(&seed)
		rng := rand.New(rand.NewSource(int64(seed)))

		r := NewRegistry()
		registered := make(map[int]bool, numPeers)

		var opCount int
		fz.Fuzz(&opCount)
		n := (opCount%30 + 30) % 30

		for i := 0; i < n; i++ {
			idx := rng.Intn(numPeers)
			if registered[idx] {
				r.Drop(ids[idx], channels[idx].client)
				registered[idx] = false
			} else {
				r.Register(ids[idx], channels[idx].client)
				registered[idx] = true
			}
			assertNoMorePeersMatchesEmpty(t, r)
		}

		for idx, on := range registered {
			if on {
				r.Drop(ids[idx], channels[idx].client)
			}
		}
		require.True(t, r.Empty())
		assertNoMorePeersMatchesEmpty(t, r)
	}
}

type channelPair struct {
	client, server *transport.TCPChannel
}

func assertNoMorePeersMatchesEmpty(t *testing.T, r *Registry) {
	t.Helper()
	empty := r.Empty()
	select {
	case <-r.NoMorePeers():
		require.True(t, empty, "NoMorePeers fired while a peer remains")
	default:
		require.False(t, empty, "Empty() true but NoMorePeers did not fire")
	}
}
