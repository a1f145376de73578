// Package actor implements the lifecycle every runtime process shares:
// startup, the TCP accept server, the parent connection, cancellation,
// and teardown (spec.md §4.6). arbiter.Arbiter embeds *Actor to add the
// name registry on top of it.
package actor

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/p2p/nat"
	"github.com/pkg/errors"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/admin"
	"github.com/nyric/actorio/co"
	"github.com/nyric/actorio/internal/xlog"
	"github.com/nyric/actorio/peer"
	"github.com/nyric/actorio/rpc"
	"github.com/nyric/actorio/transport"
	"github.com/nyric/actorio/wire"
)

var log = xlog.WithContext("pkg", "actor")

// Actor is one running instance of the runtime: it owns a listener, a
// peer registry, an RPC function registry, and the cancellation tree
// described in spec.md §4.6/§5.
type Actor struct {
	Self actorid.ID
	cfg  Config

	registry *rpc.Registry
	peers    *peer.Registry
	client   *rpc.Client
	invoker  *rpc.Invoker
	tasks    *rpc.TaskTable

	rootTasks *co.Goes  // the root scope: every spawned goroutine, waited on by Run
	server    *co.Choes // the server scope: the accept loop lives here

	listener *transport.Listener
	natMap   nat.Interface

	hub       *admin.Hub
	adminURL  string
	adminStop func()

	parentCh wire.Channel

	startedCh chan struct{}
	exclMu    sync.Mutex
	excl      map[string]chan struct{}

	cancelOnce sync.Once
	fatalOnce  sync.Once
	fatalErr   error
}

// New prepares an actor from cfg. The RPC registry is populated by
// running every configured Module; a panic inside a Module aborts
// startup with the recovered value wrapped as an error.
func New(cfg Config) (a *Actor, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("actor: module registration panicked: %v", r)
		}
	}()

	reg := rpc.NewRegistry()
	for _, mod := range cfg.Modules {
		mod(reg)
	}

	self := actorid.New(cfg.Name)
	a = &Actor{
		Self:      self,
		cfg:       cfg,
		registry:  reg,
		peers:     peer.NewRegistry(),
		client:    rpc.NewClient(self),
		invoker:   rpc.NewInvoker(reg),
		tasks:     rpc.NewTaskTable(),
		rootTasks: &co.Goes{},
		server:    co.NewChoes(),
		hub:       admin.NewHub(),
		excl:      make(map[string]chan struct{}),
		startedCh: make(chan struct{}),
	}
	a.registerSelfFuncs()
	return a, nil
}

// Spawn runs f in a new goroutine belonging to the actor's root scope.
// It implements rpc.Spawner for the message loops this actor drives.
func (a *Actor) Spawn(f func()) {
	a.rootTasks.Go(f)
}

// Started returns a channel that closes once Start has completed steps
// 1-6 of spec.md §4.6 and the actor is ready to serve. Safe to call
// before or after Start.
func (a *Actor) Started() <-chan struct{} {
	return a.startedCh
}

// Start runs the startup sequence of spec.md §4.6 steps 1-6 and returns
// once the actor is ready to serve; it does not block on the root scope —
// call Run for that. Start fails fast (network bind errors, handshake
// failures against a configured parent) but registration/arbiter failures
// are logged and otherwise non-fatal: a missing arbiter or NAT gateway
// shouldn't keep an otherwise-healthy actor from serving.
func (a *Actor) Start(ctx context.Context) error {
	ln, err := transport.Listen(a.cfg.ListenAddr)
	if err != nil {
		return errors.Wrap(err, "listen")
	}
	a.listener = ln

	if a.cfg.NAT != "" && a.cfg.NAT != "none" {
		natm, err := nat.Parse(a.cfg.NAT)
		if err != nil {
			return errors.Wrap(err, "-nat")
		}
		a.natMap = natm
		if port := tcpPort(ln.Addr()); natm != nil && port != 0 {
			go nat.Map(natm, nil, "tcp", port, port, a.Self.Name+" actor rpc")
		}
	}

	a.server.Go(a.acceptLoop)
	a.startAdmin()

	if a.cfg.ParentAddr != "" {
		if err := a.connectParent(ctx); err != nil {
			return errors.Wrap(err, "connect parent")
		}
	}

	if a.cfg.ArbiterAddr != "" {
		if err := a.registerWithArbiter(ctx); err != nil {
			log.Warn("register with arbiter failed", "err", err)
		}
	}

	close(a.startedCh)
	return nil
}

// Run blocks until the root scope drains or is cancelled — step 7 of
// spec.md §4.6.
func (a *Actor) Run() {
	a.server.Wait()
	a.rootTasks.Wait()
}

func (a *Actor) acceptLoop(stop chan struct{}) {
	go func() {
		<-stop
		a.listener.Close()
	}()

	for {
		ch, err := a.listener.Accept()
		if err != nil {
			return
		}
		a.Spawn(func() { a.serveChannel(context.Background(), ch) })
	}
}

// serveChannel performs the handshake and drives ch's MessageLoop until
// it exits.
func (a *Actor) serveChannel(ctx context.Context, ch wire.Channel) {
	remote, err := peer.Handshake(ctx, ch, a.Self)
	if err != nil {
		log.Warn("handshake failed", "err", err)
		ch.Close()
		return
	}
	a.peers.Register(remote, ch)
	a.publishPeerConnected(remote)

	loop := &rpc.MessageLoop{
		Self:        a.Self,
		RemoteID:    remote,
		Channel:     ch,
		Peers:       a.peers,
		Client:      a.client,
		Invoker:     a.invoker,
		Tasks:       a.tasks,
		Spawner:     a,
		OnError:     a.onLoopError,
		OnTaskStart: a.publishTaskStarted,
		OnTaskEnd:   a.publishTaskFinished,
	}
	loop.Run(ctx)
	a.publishPeerDropped(remote)
}

func (a *Actor) connectParent(ctx context.Context) error {
	ch, err := transport.Dial(ctx, a.cfg.ParentAddr)
	if err != nil {
		return err
	}
	a.parentCh = ch
	a.Spawn(func() { a.serveChannel(context.Background(), ch) })
	return nil
}

// onLoopError is every MessageLoop's OnError callback. It ships err to
// the parent connection, if any, then begins teardown exactly once —
// further errors from other channels are logged but do not re-trigger
// teardown.
func (a *Actor) onLoopError(err error) {
	first := false
	defer func() {
		if !first {
			log.Warn("actor-level error after teardown began", "err", err)
		}
	}()
	a.fatalOnce.Do(func() {
		first = true
		a.fatalErr = err
		log.Error("uncaught actor-level error", "err", err)
		if a.parentCh != nil && a.parentCh.Connected() {
			a.parentCh.Send(context.Background(), &wire.Envelope{Error: fmt.Sprintf("%+v", err)})
		}
		go a.Cancel(context.Background())
	})
}

// Err returns the error that triggered teardown, if teardown was
// triggered by an uncaught actor-level error rather than an explicit
// Cancel call.
func (a *Actor) Err() error {
	return a.fatalErr
}

// Cancel runs the cancellation protocol of spec.md §4.6: cancel every RPC
// task across every channel and await drain, cancel the server scope,
// then cancel the root scope — which in turn closes every remaining peer
// channel, runs the teardown finally block, and unconditionally cancels
// the server scope again. It is idempotent.
func (a *Actor) Cancel(ctx context.Context) {
	a.cancelOnce.Do(func() {
		a.tasks.CancelAll()
		select {
		case <-a.tasks.NoMoreTasks():
		case <-ctx.Done():
		}

		a.server.Stop()
		a.teardown(ctx)
		a.server.Stop()
	})
}

// teardown runs the finally block of spec.md §4.6: best-effort arbiter
// unregister, then close every remaining peer channel and wait for
// no_more_peers.
func (a *Actor) teardown(ctx context.Context) {
	if a.adminStop != nil {
		a.adminStop()
	}
	if a.cfg.ArbiterAddr != "" {
		if err := a.unregisterFromArbiter(ctx); err != nil {
			log.Warn("unregister from arbiter failed", "err", err)
		}
	}
	if !a.peers.Empty() {
		a.peers.CloseAll()
		<-a.peers.NoMorePeers()
	}
}

// Registry exposes the RPC function registry, for modules that need to
// add entries after construction (e.g. arbiter.Arbiter adding its own
// "self" functions on top of an embedded Actor).
func (a *Actor) Registry() *rpc.Registry { return a.registry }

// Peers exposes the live peer registry, read by the admin /admin/peers
// endpoint.
func (a *Actor) Peers() *peer.Registry { return a.peers }

// Portal returns a Portal issuing calls over ch using this actor's
// Client.
func (a *Actor) Portal(ch wire.Channel) *rpc.Portal {
	return rpc.NewPortal(a.client, ch)
}

// Dial connects to addr, performs the handshake, and starts driving its
// MessageLoop under the root scope, returning a Portal over the new
// channel. Used to originate an outbound connection to an arbitrary peer
// (as opposed to the one configured parent).
func (a *Actor) Dial(ctx context.Context, addr string) (*rpc.Portal, error) {
	ch, err := transport.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	remote, err := peer.Handshake(ctx, ch, a.Self)
	if err != nil {
		ch.Close()
		return nil, err
	}
	a.peers.Register(remote, ch)
	a.publishPeerConnected(remote)

	loop := &rpc.MessageLoop{
		Self:        a.Self,
		RemoteID:    remote,
		Channel:     ch,
		Peers:       a.peers,
		Client:      a.client,
		Invoker:     a.invoker,
		Tasks:       a.tasks,
		Spawner:     a,
		OnError:     a.onLoopError,
		OnTaskStart: a.publishTaskStarted,
		OnTaskEnd:   a.publishTaskFinished,
	}
	a.Spawn(func() {
		loop.Run(context.Background())
		a.publishPeerDropped(remote)
	})
	return a.Portal(ch), nil
}

// ListenAddr returns the address the accept server is actually bound to,
// useful when Config.ListenAddr was ":0".
func (a *Actor) ListenAddr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// AdminURL returns the base URL of the admin HTTP surface (e.g.
// "http://127.0.0.1:54321/admin"), or "" if Config.AdminAddr was empty or
// the admin server failed to start.
func (a *Actor) AdminURL() string {
	return a.adminURL
}
