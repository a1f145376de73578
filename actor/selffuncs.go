package actor

import (
	"context"

	"github.com/nyric/actorio/rpc"
)

// registerSelfFuncs adds the "self" namespace every actor answers on,
// currently just the remote cancellation entry point. MessageLoop.dispatch
// special-cases self/cancel as non-cancellable so a cancel-of-cancel
// cannot deadlock teardown.
func (a *Actor) registerSelfFuncs() {
	a.registry.Register("self", "cancel", &rpc.Descriptor{
		Kind: rpc.AsyncValue,
		Call: func(ctx context.Context, _ rpc.Args) (any, error) {
			go a.Cancel(context.Background())
			return nil, nil
		},
	})
}
