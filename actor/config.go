package actor

import (
	"context"

	"github.com/nyric/actorio/rpc"
)

// Config holds everything an actor needs to know about itself before
// Start is called. The zero value is valid except for Name, which must
// be non-empty.
type Config struct {
	// Name is this actor's logical name; a fresh instance uid is minted
	// for it by New.
	Name string

	// ListenAddr is the TCP address the accept server binds, e.g.
	// ":0" to pick an ephemeral port.
	ListenAddr string

	// ParentAddr, if non-empty, is dialed once at startup; thereafter
	// any uncaught actor-level error is shipped to it before propagating.
	ParentAddr string

	// ArbiterAddr, if non-empty, is the address register_actor is called
	// against. Left empty, the actor never registers itself.
	ArbiterAddr string

	// NAT selects the port-mapping mechanism for the accept server, using
	// the same vocabulary as go-ethereum/p2p/nat.Parse:
	// "" or "none", "any", "upnp", "pmp", "extip:<IP>".
	NAT string

	// AdminAddr, if non-empty, starts the admin HTTP/WS surface (§10) on
	// this address alongside the accept server. Left empty, no admin
	// surface is started.
	AdminAddr string

	// Modules registers this actor's remote-callable functions. Startup
	// aborts if any Register call inside a module's setup panics.
	Modules []Module

	// ArbiterPortal, if set, overrides how the actor reaches the arbiter:
	// instead of dialing ArbiterAddr it calls this to obtain a Caller.
	// A func returning arbiter.Local(arb) set here short-circuits a
	// process that is itself the arbiter, per spec.md §4.7's last
	// paragraph.
	ArbiterPortal func(ctx context.Context) (rpc.Caller, error)
}

// Module registers one or more namespaces of remote-callable functions
// against reg. It is the Go-native replacement for importing a module by
// string path: registration is explicit and happens in New.
type Module func(reg *rpc.Registry)
