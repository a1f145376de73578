package actor

import (
	"context"

	"github.com/nyric/actorio/rpc"
)

// arbiterNS is the namespace the arbiter package registers its four
// remote-callable operations under.
const arbiterNS = "arbiter"

func (a *Actor) arbiterPortal(ctx context.Context) (rpc.Caller, error) {
	if a.cfg.ArbiterPortal != nil {
		return a.cfg.ArbiterPortal(ctx)
	}
	return a.Dial(ctx, a.cfg.ArbiterAddr)
}

func (a *Actor) registerWithArbiter(ctx context.Context) error {
	portal, err := a.arbiterPortal(ctx)
	if err != nil {
		return err
	}
	return portal.Call(ctx, arbiterNS, "register_actor", map[string]any{
		"uid":      a.Self,
		"sockaddr": a.ListenAddr(),
	}, nil)
}

func (a *Actor) unregisterFromArbiter(ctx context.Context) error {
	portal, err := a.arbiterPortal(ctx)
	if err != nil {
		return err
	}
	return portal.Call(ctx, arbiterNS, "unregister_actor", map[string]any{
		"uid": a.Self,
	}, nil)
}
