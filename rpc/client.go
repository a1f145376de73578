package rpc

import (
	"context"
	"encoding/json"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/wire"
)

// Client originates RPC calls. One Client is owned by each actor and
// shared by every channel that actor dials out on, since a CallID is
// globally unique regardless of which channel it travels over.
type Client struct {
	self    actorid.ID
	inboxes *inboxTable
}

// NewClient returns a Client that will identify itself as self on every
// outbound Invocation.
func NewClient(self actorid.ID) *Client {
	return &Client{self: self, inboxes: newInboxTable()}
}

// newCallID mints a fresh, globally-unique call id.
func newCallID() wire.CallID {
	return wire.CallID(uuid.NewRandom().String())
}

// SendCmd allocates a CallID, pre-allocates its ReplyInbox (so replies
// racing ahead of the caller's first read are never lost), sends the
// `cmd` frame, and returns both to the caller. Interpreting subsequent
// inbox messages according to the functype frame, and eventually calling
// Close to release the inbox, is the caller's responsibility.
func (c *Client) SendCmd(ctx context.Context, ch wire.Channel, ns, fn string, args any) (wire.CallID, *ReplyInbox, error) {
	cid := newCallID()
	inbox := c.inboxes.getOrCreate(cid, ch)

	raw, err := json.Marshal(args)
	if err != nil {
		c.inboxes.drop(cid)
		return "", nil, errors.Wrap(err, "marshal args")
	}

	inv := &wire.Invocation{NS: ns, Func: fn, Args: raw, Caller: c.self, CallID: cid}
	if err := ch.Send(ctx, &wire.Envelope{Cmd: inv}); err != nil {
		c.inboxes.drop(cid)
		return "", nil, errors.Wrap(err, "send cmd")
	}
	return cid, inbox, nil
}

// Close releases cid's ReplyInbox. Any reply that arrives afterwards is
// discarded with a log warning rather than delivered.
func (c *Client) Close(cid wire.CallID) {
	c.inboxes.drop(cid)
}

// routeReply is called by a MessageLoop for every inbound reply frame,
// passing the channel it arrived on; it is not part of the public API a
// caller of SendCmd needs.
func (c *Client) routeReply(ch wire.Channel, env *wire.Envelope) {
	inbox, ok := c.inboxes.lookup(env.CallID)
	if !ok {
		log.Warn("discarding reply for released call", "cid", env.CallID)
		return
	}
	inbox.TryPut(env)
}

// broadcastActorError returns every inbox whose call travelled over ch,
// for the caller to push env into — used when a peer's unsolicited
// `{error}` frame (no cid) must reach every in-flight caller against that
// peer, and no other.
func (c *Client) broadcastActorError(ch wire.Channel, env *wire.Envelope) []*ReplyInbox {
	return c.inboxes.forChannel(ch)
}
