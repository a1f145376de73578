package rpc

import (
	"context"
	"encoding/json"
)

// LocalPortal calls directly into a Registry's descriptors, bypassing
// wire encoding and any Channel entirely — the in-process short-circuit
// spec.md §4.7 describes for a process that holds a portal to itself.
type LocalPortal struct {
	registry *Registry
}

// NewLocalPortal returns a LocalPortal resolving functions from registry.
func NewLocalPortal(registry *Registry) *LocalPortal {
	return &LocalPortal{registry: registry}
}

// Call invokes ns/fn directly and decodes its single result into out.
func (p *LocalPortal) Call(ctx context.Context, ns, fn string, args any, out any) error {
	desc, ok := p.registry.Resolve(ns, fn)
	if !ok {
		return errFunctionNotFound(ns, fn)
	}
	decoded, err := encodeDecodeArgs(args)
	if err != nil {
		return err
	}
	result, err := desc.Call(ctx, decoded)
	if err != nil {
		return err
	}
	if out == nil || result == nil {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// StreamCall invokes ns/fn as a streaming function and returns a
// LocalStream the caller drains with Next.
func (p *LocalPortal) StreamCall(ctx context.Context, ns, fn string, args any) (*LocalStream, error) {
	desc, ok := p.registry.Resolve(ns, fn)
	if !ok {
		return nil, errFunctionNotFound(ns, fn)
	}
	decoded, err := encodeDecodeArgs(args)
	if err != nil {
		return nil, err
	}

	values := make(chan json.RawMessage, 16)
	done := make(chan error, 1)
	emit := func(value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		select {
		case values <- raw:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	go func() {
		defer close(values)
		done <- desc.Stream(ctx, decoded, emit)
	}()

	return &LocalStream{values: values, done: done}, nil
}

// LocalStream is the caller-side handle on an in-process streaming call.
type LocalStream struct {
	values chan json.RawMessage
	done   chan error
}

// Next blocks for the next yielded value, decoding it into out. It
// reports done == true once the stream has run to completion, alongside
// any error the streaming function itself returned.
func (s *LocalStream) Next(ctx context.Context, out any) (done bool, err error) {
	select {
	case raw, ok := <-s.values:
		if !ok {
			return true, <-s.done
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return false, err
			}
		}
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func encodeDecodeArgs(args any) (Args, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return DecodeArgs(raw)
}
