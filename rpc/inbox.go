package rpc

import (
	"context"
	"sync"

	"github.com/nyric/actorio/internal/xlog"
	"github.com/nyric/actorio/wire"
)

// InboxCapacity is the fixed capacity of every ReplyInbox. It is the
// runtime's only backpressure mechanism: a slow caller stalls the
// responder's message loop once its inbox fills, rather than the
// runtime dropping or buffering without bound.
const InboxCapacity = 1000

var log = xlog.WithContext("pkg", "rpc")

// ReplyInbox is the bounded, ordered queue of reply frames for one
// CallID. The caller's SendCmd creates it before sending the request, so
// no reply can arrive ahead of it; a reply whose inbox has already been
// released is discarded by Client.routeReply.
type ReplyInbox struct {
	ch chan *wire.Envelope
}

func newReplyInbox() *ReplyInbox {
	return &ReplyInbox{ch: make(chan *wire.Envelope, InboxCapacity)}
}

// Put enqueues env, blocking if the inbox is full. Returns ctx.Err() if
// ctx is cancelled first.
func (b *ReplyInbox) Put(ctx context.Context, env *wire.Envelope) error {
	select {
	case b.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut enqueues env without blocking; if the inbox is full, env is
// discarded with a log warning.
func (b *ReplyInbox) TryPut(env *wire.Envelope) {
	select {
	case b.ch <- env:
	default:
		log.Warn("reply inbox full, dropping late message")
	}
}

// Recv blocks for the next reply, or returns ctx.Err().
func (b *ReplyInbox) Recv(ctx context.Context) (*wire.Envelope, error) {
	select {
	case env := <-b.ch:
		return env, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// inboxEntry pairs a ReplyInbox with the Channel its call travelled over,
// so an unsolicited actor-level error arriving on one channel can be
// routed only to inboxes tied to that channel.
type inboxEntry struct {
	inbox *ReplyInbox
	ch    wire.Channel
}

// inboxTable is the per-actor map of live ReplyInboxes, keyed by CallID.
// A CallID is globally unique, so one table per originating actor
// suffices regardless of how many channels are involved.
type inboxTable struct {
	mu      sync.Mutex
	entries map[wire.CallID]*inboxEntry
}

func newInboxTable() *inboxTable {
	return &inboxTable{entries: make(map[wire.CallID]*inboxEntry)}
}

// getOrCreate returns the inbox for cid, creating it (recording ch as the
// channel its call travelled over) if this is the first access. An
// existing entry's channel is left untouched — a reply
// always arrives on the same channel its request went out on.
func (t *inboxTable) getOrCreate(cid wire.CallID, ch wire.Channel) *ReplyInbox {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[cid]; ok {
		return e.inbox
	}
	e := &inboxEntry{inbox: newReplyInbox(), ch: ch}
	t.entries[cid] = e
	return e.inbox
}

// lookup returns the inbox for cid if one exists, without creating it.
func (t *inboxTable) lookup(cid wire.CallID) (*ReplyInbox, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[cid]
	if !ok {
		return nil, false
	}
	return e.inbox, true
}

// drop removes cid's inbox — called when the caller is done with it.
// Any reply arriving afterwards finds no inbox in lookup and is discarded
// with a log warning by Client.routeReply.
func (t *inboxTable) drop(cid wire.CallID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, cid)
}

// forChannel returns every inbox whose call travelled over ch.
func (t *inboxTable) forChannel(ch wire.Channel) []*ReplyInbox {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*ReplyInbox, 0, len(t.entries))
	for _, e := range t.entries {
		if e.ch == ch {
			out = append(out, e.inbox)
		}
	}
	return out
}
