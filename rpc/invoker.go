package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/nyric/actorio/wire"
)

// Invoker runs a registered function on behalf of a remote caller and
// streams its results back over the channel the request arrived on. It
// is invoked by MessageLoop once per inbound `cmd` frame.
type Invoker struct {
	registry *Registry
}

// NewInvoker returns an Invoker resolving functions from registry.
func NewInvoker(registry *Registry) *Invoker {
	return &Invoker{registry: registry}
}

// Invoke runs inv.NS/inv.Func against args, writing every reply frame to
// ch. It never returns an error that should kill the caller's message
// loop: any panic-worthy failure inside the function is caught and
// reported as a single `{error, cid}` frame instead. The ctx passed in is
// the task's own cancellable context — Invoke watches it between every
// suspension point so cancellation (channel teardown, explicit cancel)
// interrupts a streaming invocation promptly, guaranteeing any cleanup in
// a deferred statement inside Call/Stream still runs.
func (inv *Invoker) Invoke(ctx context.Context, ch wire.Channel, req *wire.Invocation) {
	desc, ok := inv.registry.Resolve(req.NS, req.Func)
	if !ok {
		inv.sendError(ctx, ch, req.CallID, errFunctionNotFound(req.NS, req.Func))
		return
	}

	args, err := DecodeArgs(req.Args)
	if err != nil {
		inv.sendError(ctx, ch, req.CallID, errors.Wrap(err, "rpc: decode args"))
		return
	}

	if err := ch.Send(ctx, &wire.Envelope{FuncType: desc.Kind.funcType(), CallID: req.CallID}); err != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			inv.sendError(ctx, ch, req.CallID, errors.Errorf("rpc: panic: %v", r))
		}
	}()

	switch desc.Kind {
	case Value, AsyncValue:
		inv.runValue(ctx, ch, req.CallID, desc, args)
	case Stream:
		inv.runStream(ctx, ch, req.CallID, desc, args)
	}
}

func (inv *Invoker) runValue(ctx context.Context, ch wire.Channel, cid wire.CallID, desc *Descriptor, args Args) {
	result, err := desc.Call(ctx, args)
	if err != nil {
		inv.sendError(ctx, ch, cid, err)
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		inv.sendError(ctx, ch, cid, errors.Wrap(err, "rpc: marshal result"))
		return
	}
	ch.Send(ctx, &wire.Envelope{Return: raw, CallID: cid})
}

func (inv *Invoker) runStream(ctx context.Context, ch wire.Channel, cid wire.CallID, desc *Descriptor, args Args) {
	if desc.WantsChannel {
		if err := desc.DirectStream(ctx, args, ch, cid); err != nil {
			inv.sendError(ctx, ch, cid, err)
		}
		return
	}

	var sendErr error
	emit := func(value any) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if err := ch.Send(ctx, &wire.Envelope{Yield: raw, CallID: cid}); err != nil {
			sendErr = err
			return err
		}
		return nil
	}

	err := desc.Stream(ctx, args, emit)
	if sendErr != nil {
		// the channel is already gone; nothing left to report to.
		return
	}
	if err != nil {
		inv.sendError(ctx, ch, cid, err)
		return
	}
	ch.Send(ctx, &wire.Envelope{Stop: true, CallID: cid})
}

func (inv *Invoker) sendError(ctx context.Context, ch wire.Channel, cid wire.CallID, err error) {
	ch.Send(ctx, &wire.Envelope{Error: fmt.Sprintf("%+v", err), CallID: cid})
}
