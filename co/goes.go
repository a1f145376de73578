// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co provides the concurrency primitives the actor runtime builds
// its cancellation tree on: uncancellable and cancellable goroutine
// groups, and a one-shot broadcast signal. They play the role
// structured-concurrency "nurseries" and readiness events play in actor
// frameworks generally.
package co

import "sync"

// Goes tracks a group of goroutines and lets the caller wait for all of
// them to return. It never asks them to stop; use Choes for that.
type Goes struct {
	wg       sync.WaitGroup
	initOnce sync.Once
	done     chan struct{}
}

func (g *Goes) init() {
	g.initOnce.Do(func() {
		g.done = make(chan struct{})
	})
}

// Go starts f in a new goroutine tracked by g.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// Wait blocks until every goroutine started by Go has returned, then
// closes the channel returned by Done.
func (g *Goes) Wait() {
	g.wg.Wait()
	g.init()
	select {
	case <-g.done:
	default:
		close(g.done)
	}
}

// Done returns a channel that's closed once Wait has observed every
// goroutine finish.
func (g *Goes) Done() <-chan struct{} {
	g.init()
	return g.done
}
