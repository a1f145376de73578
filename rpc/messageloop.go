package rpc

import (
	"context"
	"fmt"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/metrics"
	"github.com/nyric/actorio/peer"
	"github.com/nyric/actorio/wire"
)

var (
	callsDispatched = metrics.LazyLoadCounter("rpc_calls_dispatched")
	actorErrorsSeen = metrics.LazyLoadCounter("rpc_actor_errors_received")
)

// ErrActorLevel wraps an unsolicited `{error}` frame received from a
// peer: the channel is errored, every in-flight caller against that peer
// has already been notified, and this error now propagates up to the
// actor root exactly as an uncaught exception would.
type ErrActorLevel struct {
	Peer    actorid.ID
	Message string
}

func (e *ErrActorLevel) Error() string {
	return fmt.Sprintf("rpc: actor-level error from %s: %s", e.Peer.String(), e.Message)
}

// Spawner starts f in a new goroutine belonging to the actor's root task
// scope, so that invocation tasks are swept up by the same cancellation
// tree as everything else the actor runs. actor.Actor implements this.
type Spawner interface {
	Spawn(f func())
}

// MessageLoop owns one Channel for its lifetime, multiplexing inbound
// frames between request dispatch (to an Invoker) and reply routing (to
// the owning actor's Client).
type MessageLoop struct {
	Self     actorid.ID
	RemoteID actorid.ID // the peer's full identity, as returned by peer.Handshake
	Channel  wire.Channel
	Peers    *peer.Registry
	Client   *Client
	Invoker  *Invoker
	Tasks    *TaskTable
	Spawner  Spawner

	// OnError, if set, is called at most once with the error the loop
	// exited on; it is not called on an orderly terminator/shutdown exit.
	// The owning
	// actor uses it to ship the error to its parent connection, if any,
	// and to begin its own teardown — see actor.Actor.
	OnError func(error)

	// OnTaskStart/OnTaskEnd, if set, are called around every invocation
	// this loop dispatches (the non-cancellable self/cancel included), naming it "ns/func". The admin
	// events feed uses these to report task_started/task_finished.
	OnTaskStart func(fn string)
	OnTaskEnd   func(fn string)
}

// Run executes the protocol of spec.md §4.4 until the channel closes or
// an actor-level error is received. It blocks until the loop exits.
func (l *MessageLoop) Run(ctx context.Context) error {
	err := l.run(ctx)
	l.teardown(ctx, err)
	return err
}

func (l *MessageLoop) run(ctx context.Context) error {
	for {
		env, err := l.Channel.Recv(ctx)
		if err != nil {
			return err
		}

		if env == nil {
			// terminator sentinel: cancel every task on this channel, then exit.
			l.Tasks.cancelChannel(l.Channel)
			return nil
		}

		switch {
		case env.IsActorError():
			l.broadcastError(env)
			return &ErrActorLevel{Peer: l.RemoteID, Message: env.Error}

		case env.HasCallID():
			l.Client.routeReply(l.Channel, env)

		case env.Cmd != nil:
			l.dispatch(ctx, env.Cmd)
		}
	}
}

func (l *MessageLoop) broadcastError(env *wire.Envelope) {
	actorErrorsSeen().Add(1)
	for _, inbox := range l.Client.broadcastActorError(l.Channel, env) {
		inbox.TryPut(env)
	}
}

// dispatch starts a new invocation task for req. The actor's own "cancel"
// function is never itself cancellable — publishing its cancel scope
// into the task table would let a cancel-of-cancel deadlock the teardown
// protocol.
func (l *MessageLoop) dispatch(ctx context.Context, req *wire.Invocation) {
	callsDispatched().Add(1)

	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{CallID: req.CallID, Func: req.NS + "/" + req.Func, cancel: cancel}

	cancellable := !(req.NS == "self" && req.Func == "cancel")
	if cancellable {
		l.Tasks.add(l.Channel, task)
	}

	if l.OnTaskStart != nil {
		l.OnTaskStart(task.Func)
	}

	l.Spawner.Spawn(func() {
		defer cancel()
		if cancellable {
			defer l.Tasks.remove(l.Channel, req.CallID)
		}
		if l.OnTaskEnd != nil {
			defer l.OnTaskEnd(task.Func)
		}
		l.Invoker.Invoke(taskCtx, l.Channel, req)
	})
}

// teardown runs the finally block of spec.md §4.4: drop the channel from
// the peer registry and send the terminator and close it if still
// connected, then report the exit error (if any) to OnError.
func (l *MessageLoop) teardown(ctx context.Context, loopErr error) {
	l.Peers.Drop(l.RemoteID, l.Channel)

	if l.Channel.Connected() {
		l.Channel.Send(ctx, nil)
		l.Channel.Close()
	}

	if loopErr != nil && l.OnError != nil {
		l.OnError(loopErr)
	}
}
