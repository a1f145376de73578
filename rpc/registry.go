// Package rpc implements the invocation engine (Invoker), the message
// loop that multiplexes a Channel between request dispatch and reply
// routing (MessageLoop), and the originating side of a call (Client).
package rpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/nyric/actorio/wire"
)

// Kind classifies how a registered function answers a call: an explicit,
// static tag chosen at registration time rather than inferred from the
// function's signature at call time.
type Kind int

const (
	// Value functions return a single result synchronously.
	Value Kind = iota
	// AsyncValue functions return a single result after doing
	// asynchronous work; wire-visible as "asyncfunction".
	AsyncValue
	// Stream functions yield zero or more results before completing.
	Stream
)

func (k Kind) funcType() wire.FuncType {
	switch k {
	case AsyncValue:
		return wire.FuncAsyncValue
	case Stream:
		return wire.FuncStream
	default:
		return wire.FuncValue
	}
}

// Args is the decoded keyword-argument bag a registered function
// receives; callers populate it from an Invocation's raw JSON args.
type Args map[string]any

// Decode re-marshals a into JSON and unmarshals it into out, letting a
// registered function populate a typed struct from the generic bag
// instead of type-asserting each field by hand.
func (a Args) Decode(out any) error {
	raw, err := json.Marshal(map[string]any(a))
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Emit pushes one streamed value to the caller. Stream functions call it
// once per item; returning its error aborts the stream immediately
// (typically because the caller cancelled).
type Emit func(value any) error

// Descriptor is one registered remote-callable function.
type Descriptor struct {
	Kind Kind

	// Call answers Value and AsyncValue invocations.
	Call func(ctx context.Context, args Args) (any, error)

	// Stream answers Stream invocations that don't need direct channel
	// access: the engine iterates by calling Stream once and pumping
	// every value it hands to emit as a `yield` frame, sending `stop`
	// when Stream returns nil.
	Stream func(ctx context.Context, args Args, emit Emit) error

	// WantsChannel, when true together with Kind == Stream, tells the
	// invoker to hand DirectStream the raw wire.Channel and CallID
	// instead of pumping through Stream, for a function trusted to
	// publish frames directly.
	WantsChannel bool
	DirectStream func(ctx context.Context, args Args, ch wire.Channel, cid wire.CallID) error
}

// Namespace is a named group of callable functions, e.g. "math" or the
// reserved "self" namespace resolved against the owning actor's own
// methods.
type Namespace map[string]*Descriptor

// Registry is the explicit, build-time registration table that replaces
// dynamic module loading by string path: namespace -> function name ->
// Descriptor, still addressed on the wire by the same (ns, func) pair.
type Registry struct {
	mu         sync.RWMutex
	namespaces map[string]Namespace
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{namespaces: make(map[string]Namespace)}
}

// Register adds fn under ns/name, creating the namespace if needed.
func (r *Registry) Register(ns, name string, fn *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.namespaces[ns]
	if !ok {
		n = make(Namespace)
		r.namespaces[ns] = n
	}
	n[name] = fn
}

// Resolve looks up ns/name, returning (nil, false) if either is unknown.
func (r *Registry) Resolve(ns, name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.namespaces[ns]
	if !ok {
		return nil, false
	}
	d, ok := n[name]
	return d, ok
}

// errFunctionNotFound formats the standard "no such ns/func" error.
func errFunctionNotFound(ns, name string) error {
	return errors.Errorf("rpc: no such function %q in namespace %q", name, ns)
}

// DecodeArgs unmarshals an Invocation's raw JSON argument bag into Args.
func DecodeArgs(raw json.RawMessage) (Args, error) {
	if len(raw) == 0 {
		return Args{}, nil
	}
	var a Args
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return a, nil
}
