// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Choes ("cancellable goes") tracks a group of goroutines that all
// cooperatively watch a shared stop channel. Stop asks every goroutine in
// the group to return; Wait blocks until they have. This is the runtime's
// stand-in for a cancellable task scope: an actor's server scope runs
// inside one (its root scope is a Goes, and each RPC invocation is
// cancelled through its own context).
type Choes struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewChoes creates an empty, running Choes.
func NewChoes() *Choes {
	return &Choes{stopChan: make(chan struct{})}
}

// Go starts f in a new goroutine, handing it the group's stop channel. f
// must select on stopChan and return promptly once it's closed.
func (g *Choes) Go(f func(stopChan chan struct{})) {
	g.mu.Lock()
	stop := g.stopChan
	g.mu.Unlock()

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f(stop)
	}()
}

// Stop closes the group's stop channel, waking every goroutine blocked on
// it. Safe to call more than once and from any goroutine.
func (g *Choes) Stop() {
	g.stopOnce.Do(func() {
		g.mu.Lock()
		close(g.stopChan)
		g.mu.Unlock()
	})
}

// Stopped reports whether Stop has been called.
func (g *Choes) Stopped() bool {
	select {
	case <-g.stopChan:
		return true
	default:
		return false
	}
}

// Wait blocks until every goroutine started by Go has returned. It does
// not imply Stop — goroutines that never observe cancellation will hang
// Wait forever, same as a leaked goroutine would hang any WaitGroup.
func (g *Choes) Wait() {
	g.wg.Wait()
}
