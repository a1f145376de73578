// Package wire defines the message grammar carried over every Channel and
// the Channel interface itself. Channel's byte-level framing and
// serialization codec are an external concern of this module (see the
// transport package for the default implementation) — wire only fixes
// the shape of what flows across it.
package wire

import (
	"context"
	"encoding/json"

	"github.com/nyric/actorio/actorid"
)

// CallID uniquely identifies one in-flight RPC invocation.
type CallID string

// FuncType classifies how a responder is going to answer an Invocation.
// It is the statically-registered replacement for introspecting a Python
// callable's signature at call time.
type FuncType string

const (
	FuncValue      FuncType = "function"      // synchronous, single value
	FuncAsyncValue FuncType = "asyncfunction"  // single value, ran asynchronously
	FuncStream     FuncType = "asyncgen"       // zero or more yielded values
)

// Invocation is the payload of a `cmd` frame: namespace, function name,
// keyword arguments, the caller's identity, and the call id that scopes
// every reply.
type Invocation struct {
	NS     string          `json:"ns"`
	Func   string          `json:"func"`
	Args   json.RawMessage `json:"args,omitempty"`
	Caller actorid.ID      `json:"caller"`
	CallID CallID          `json:"cid"`
}

// Envelope is the tagged union carried by a Channel. Exactly one of its
// non-CallID fields is populated per spec.md §6's wire grammar. A nil
// *Envelope coming out of Channel.Recv is the terminator sentinel (the
// wire grammar's `null` frame); sending a nil *Envelope asks the remote
// side to shut the channel down.
type Envelope struct {
	// Identity carries a handshake frame — the very first message sent
	// and received on a freshly-opened Channel.
	Identity *actorid.ID `json:"identity,omitempty"`

	Cmd      *Invocation     `json:"cmd,omitempty"`
	FuncType FuncType        `json:"functype,omitempty"`
	Return   json.RawMessage `json:"return,omitempty"`
	Yield    json.RawMessage `json:"yield,omitempty"`
	Stop     bool            `json:"stop,omitempty"`
	Error    string          `json:"error,omitempty"`
	CallID   CallID          `json:"cid,omitempty"`
}

// HasCallID reports whether this envelope carries a call id, i.e. it is a
// reply frame that should be routed to a ReplyInbox rather than dispatched
// as a new request.
func (e *Envelope) HasCallID() bool {
	return e != nil && e.CallID != "" && e.Cmd == nil
}

// IsActorError reports whether this is an unsolicited, channel-wide error
// (an `{error}` frame with no accompanying cid).
func (e *Envelope) IsActorError() bool {
	return e != nil && e.Error != "" && e.CallID == ""
}

// Channel is a bidirectional, ordered, reliable message pipe carrying
// Envelopes between two actors. Implementations are owned by whichever
// MessageLoop reads from them for the channel's lifetime; the peer
// registry only ever holds non-owning references.
type Channel interface {
	// Send writes env to the peer. A nil env sends the terminator frame.
	Send(ctx context.Context, env *Envelope) error

	// Recv blocks for the next inbound Envelope. It returns (nil, nil)
	// on the terminator frame or on orderly peer shutdown.
	Recv(ctx context.Context) (*Envelope, error)

	// Close releases the channel's underlying resources. Idempotent.
	Close() error

	// Connected reports whether the channel is still usable.
	Connected() bool

	// RemoteUID returns the instance uid of the peer this channel was
	// bound to by the handshake, or "" before the handshake completes.
	RemoteUID() string

	// SetRemoteUID is called exactly once, by the handshake, to fill in
	// the identity of the far end.
	SetRemoteUID(uid string)
}
