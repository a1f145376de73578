// Package arbiter implements the central actor-name-to-address registry
// described in spec.md §4.7: a specialization of actor.Actor that adds
// four remote-callable operations on top of the base lifecycle.
package arbiter

import (
	"context"

	"github.com/nyric/actorio/actor"
	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/rpc"
)

// ns is the namespace the arbiter's four operations are registered
// under; actor.Actor dials into this same namespace to register/
// unregister itself at startup/teardown.
const ns = "arbiter"

// Arbiter embeds *actor.Actor, adding the name Registry and its four
// remote-callable operations.
type Arbiter struct {
	*actor.Actor
	Registry *Registry
}

// New prepares an arbiter actor from cfg, registering its four
// operations in addition to whatever modules cfg.Modules already lists.
func New(cfg actor.Config) (*Arbiter, error) {
	reg := NewRegistry()
	arb := &Arbiter{Registry: reg}

	cfg.Modules = append(append([]actor.Module{}, cfg.Modules...), arb.module)

	a, err := actor.New(cfg)
	if err != nil {
		return nil, err
	}
	arb.Actor = a
	return arb, nil
}

func (arb *Arbiter) module(reg *rpc.Registry) {
	reg.Register(ns, "register_actor", &rpc.Descriptor{
		Kind: rpc.Value,
		Call: arb.registerActor,
	})
	reg.Register(ns, "unregister_actor", &rpc.Descriptor{
		Kind: rpc.Value,
		Call: arb.unregisterActor,
	})
	reg.Register(ns, "find_actor", &rpc.Descriptor{
		Kind: rpc.Value,
		Call: arb.findActor,
	})
	reg.Register(ns, "wait_for_actor", &rpc.Descriptor{
		Kind: rpc.AsyncValue,
		Call: arb.waitForActor,
	})
}

type registerReq struct {
	UID      actorid.ID `json:"uid"`
	Sockaddr string     `json:"sockaddr"`
}

func (arb *Arbiter) registerActor(_ context.Context, args rpc.Args) (any, error) {
	var req registerReq
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	arb.Registry.Register(req.UID, req.Sockaddr)
	return nil, nil
}

type uidReq struct {
	UID actorid.ID `json:"uid"`
}

func (arb *Arbiter) unregisterActor(_ context.Context, args rpc.Args) (any, error) {
	var req uidReq
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	arb.Registry.Unregister(req.UID)
	return nil, nil
}

type nameReq struct {
	Name string `json:"name"`
}

func (arb *Arbiter) findActor(_ context.Context, args rpc.Args) (any, error) {
	var req nameReq
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	addr, ok := arb.Registry.Find(req.Name)
	if !ok {
		return nil, nil
	}
	return addr, nil
}

func (arb *Arbiter) waitForActor(ctx context.Context, args rpc.Args) (any, error) {
	var req nameReq
	if err := args.Decode(&req); err != nil {
		return nil, err
	}
	addrs, signal := arb.Registry.AddressesOrWait(req.Name)
	if signal == nil {
		return addrs, nil
	}

	waiter := signal.NewWaiter()
	// a Register landing before NewWaiter broadcast to no waiter; its
	// address is already visible here.
	if addrs := arb.Registry.Addresses(req.Name); len(addrs) > 0 {
		return addrs, nil
	}
	select {
	case <-waiter.C():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return arb.Registry.Addresses(req.Name), nil
}

// Local returns a portal that calls directly into arb's RPC registry, in
// the same process, bypassing transport entirely — the short-circuit
// described in spec.md §4.7's last paragraph for when the actor-runtime
// root's own configured arbiter address is itself.
func Local(arb *Arbiter) *rpc.LocalPortal {
	return rpc.NewLocalPortal(arb.Actor.Registry())
}
