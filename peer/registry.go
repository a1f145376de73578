// Package peer implements the per-actor channel registry and the
// handshake performed on every freshly-opened Channel.
package peer

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/co"
	"github.com/nyric/actorio/internal/xlog"
	"github.com/nyric/actorio/metrics"
	"github.com/nyric/actorio/wire"
)

var log = xlog.WithContext("pkg", "peer")

var peerCount = metrics.LazyLoadGauge("peer_count")

// entry is the live state for one remote actor: its channels (normally
// one, but multi-connect is tolerated) and the readiness signal fired
// when the first channel to it opens.
type entry struct {
	channels []wire.Channel
	ready    co.Signal
}

// Registry is the per-actor table of live channels keyed by remote
// actor identity, plus the wait-for-peer readiness machinery.
//
// Registry owns no Channels — they belong to whichever MessageLoop reads
// them — it only holds non-owning references, indexed by remote ID.
type Registry struct {
	mu        sync.Mutex
	peers     map[actorid.ID]*entry
	noPeersCh chan struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[actorid.ID]*entry)}
}

// Register records ch as a live channel to ch.RemoteUID's actor, firing
// any pending readiness waiter for that id. remoteID must match
// ch.RemoteUID() — the caller passes it explicitly since post-handshake
// the uid is already known as a typed actorid.ID, not just its uid string.
func (r *Registry) Register(remoteID actorid.ID, ch wire.Channel) {
	r.mu.Lock()

	e, ok := r.peers[remoteID]
	if !ok {
		e = &entry{}
		r.peers[remoteID] = e
	} else if len(e.channels) > 0 {
		log.Warn("multiple concurrent channels to same peer", "peer", remoteID.String())
	}
	e.channels = append(e.channels, ch)
	e.ready.Broadcast()
	count := len(r.peers)

	r.mu.Unlock()
	peerCount().Set(int64(count))
}

// WaitForPeer returns without blocking a channel that closes once a
// channel to remoteID exists (immediately, if one already does); Latest
// then returns the most-recently-registered channel for it. The caller
// must tolerate that channel having closed in the interim.
func (r *Registry) WaitForPeer(remoteID actorid.ID) <-chan struct{} {
	r.mu.Lock()
	e, ok := r.peers[remoteID]
	if !ok {
		e = &entry{}
		r.peers[remoteID] = e
	}
	ready := len(e.channels) > 0
	waiter := e.ready.NewWaiter()
	r.mu.Unlock()

	out := make(chan struct{})
	if ready {
		close(out)
		return out
	}
	go func() {
		<-waiter.C()
		close(out)
	}()
	return out
}

// Latest returns the most-recently-registered channel to remoteID, if any.
func (r *Registry) Latest(remoteID actorid.ID) (wire.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.peers[remoteID]
	if !ok || len(e.channels) == 0 {
		return nil, false
	}
	return e.channels[len(e.channels)-1], true
}

// Drop removes ch from remoteID's entry. If that empties the entry, the
// entry itself is deleted; if no peers remain at all, NoMorePeers fires.
func (r *Registry) Drop(remoteID actorid.ID, ch wire.Channel) {
	r.mu.Lock()

	e, ok := r.peers[remoteID]
	if !ok {
		r.mu.Unlock()
		return
	}
	for i, c := range e.channels {
		if c == ch {
			e.channels = append(e.channels[:i], e.channels[i+1:]...)
			break
		}
	}
	if len(e.channels) == 0 {
		delete(r.peers, remoteID)
	}
	r.signalIfEmptyLocked()
	count := len(r.peers)

	r.mu.Unlock()
	peerCount().Set(int64(count))
}

// NoMorePeers returns a channel that closes the instant the registry has
// no peer entries left. Called on an empty registry it returns an
// already-closed channel; calls made while peers remain share one channel.
func (r *Registry) NoMorePeers() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.peers) == 0 {
		out := make(chan struct{})
		close(out)
		return out
	}
	if r.noPeersCh == nil {
		r.noPeersCh = make(chan struct{})
	}
	return r.noPeersCh
}

// must be called with r.mu held.
func (r *Registry) signalIfEmptyLocked() {
	if len(r.peers) == 0 && r.noPeersCh != nil {
		close(r.noPeersCh)
		r.noPeersCh = nil
	}
}

// Snapshot returns, for each currently-registered peer, its id and
// channel count — used by the admin /admin/peers endpoint.
func (r *Registry) Snapshot() map[actorid.ID]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[actorid.ID]int, len(r.peers))
	for id, e := range r.peers {
		out[id] = len(e.channels)
	}
	return out
}

// CloseAll closes every currently-registered channel, snapshotted under
// lock so Close (which may block briefly on I/O) never runs while holding
// it. Each closed channel's own MessageLoop observes the closure via
// Recv and runs its normal teardown, eventually draining the registry —
// this is how root-scope cancellation reaches already-connected peers.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	var channels []wire.Channel
	for _, e := range r.peers {
		channels = append(channels, e.channels...)
	}
	r.mu.Unlock()

	var g errgroup.Group
	for _, ch := range channels {
		g.Go(ch.Close)
	}
	g.Wait() //nolint:errcheck // best-effort close, nothing actionable on error
}

// Empty reports whether the registry currently holds no peer entries —
// invariant 3 of spec.md §3 ("no_more_peers is signalled iff every peer
// entry is empty") restated as a direct query for tests.
func (r *Registry) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers) == 0
}
