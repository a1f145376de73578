package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/nyric/actorio/wire"
)

// Caller is the common surface of Portal and LocalPortal: enough to make
// a single request/response call regardless of whether it travels over a
// real Channel or is short-circuited in-process.
type Caller interface {
	Call(ctx context.Context, ns, fn string, args any, out any) error
}

// Portal bundles a Channel with convenience call methods, so call sites
// don't have to hand-assemble Invocations and interpret functype/return/
// yield/stop/error frames themselves. It borrows the Channel; it does
// not own or close it.
type Portal struct {
	client  *Client
	channel wire.Channel
}

// NewPortal returns a Portal issuing calls as client over channel.
func NewPortal(client *Client, channel wire.Channel) *Portal {
	return &Portal{client: client, channel: channel}
}

// Call invokes ns/fn with args and decodes its single result into out
// (which should be a pointer, as for json.Unmarshal). It blocks until the
// functype preamble and the terminal return/error frame both arrive, and
// works identically for Value and AsyncValue functions — the caller does
// not need to know which.
func (p *Portal) Call(ctx context.Context, ns, fn string, args any, out any) error {
	cid, inbox, err := p.client.SendCmd(ctx, p.channel, ns, fn, args)
	if err != nil {
		return err
	}
	defer p.client.Close(cid)

	ft, err := p.recvFuncType(ctx, inbox)
	if err != nil {
		return err
	}
	if ft == wire.FuncStream {
		return errors.Errorf("rpc: %s/%s is a streaming function, use StreamCall instead", ns, fn)
	}

	env, err := inbox.Recv(ctx)
	if err != nil {
		return err
	}
	if env.Error != "" {
		return errors.New(env.Error)
	}
	if out == nil || len(env.Return) == 0 {
		return nil
	}
	return json.Unmarshal(env.Return, out)
}

// StreamCall invokes ns/fn as a streaming function and returns a Stream
// the caller drains with Next until it reports done.
func (p *Portal) StreamCall(ctx context.Context, ns, fn string, args any) (*Stream, error) {
	cid, inbox, err := p.client.SendCmd(ctx, p.channel, ns, fn, args)
	if err != nil {
		return nil, err
	}

	ft, err := p.recvFuncType(ctx, inbox)
	if err != nil {
		p.client.Close(cid)
		return nil, err
	}
	if ft != wire.FuncStream {
		p.client.Close(cid)
		return nil, errors.Errorf("rpc: %s/%s is not a streaming function", ns, fn)
	}

	return &Stream{client: p.client, cid: cid, inbox: inbox}, nil
}

func (p *Portal) recvFuncType(ctx context.Context, inbox *ReplyInbox) (wire.FuncType, error) {
	env, err := inbox.Recv(ctx)
	if err != nil {
		return "", err
	}
	if env.Error != "" {
		return "", errors.New(env.Error)
	}
	if env.FuncType == "" {
		return "", fmt.Errorf("rpc: expected functype preamble, got %+v", env)
	}
	return env.FuncType, nil
}

// Stream is the caller-side handle on an in-flight streaming invocation.
type Stream struct {
	client *Client
	cid    wire.CallID
	inbox  *ReplyInbox
	closed bool
}

// Next blocks for the next yielded value, decoding it into out. It
// returns done == true (with a nil error) once the responder has sent
// its stop frame; the caller should not call Next again afterwards.
func (s *Stream) Next(ctx context.Context, out any) (done bool, err error) {
	env, err := s.inbox.Recv(ctx)
	if err != nil {
		return false, err
	}
	if env.Error != "" {
		return false, errors.New(env.Error)
	}
	if env.Stop {
		return true, nil
	}
	if out != nil && len(env.Yield) > 0 {
		if err := json.Unmarshal(env.Yield, out); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Close releases the stream's reply inbox. Safe to call more than once,
// and safe to call before the stream has run to completion to abandon it
// early — the responder side learns of this only via cancellation of its
// own task, not via Close itself.
func (s *Stream) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.client.Close(s.cid)
}
