// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Waiter is a single registration against a Signal. Its channel closes
// exactly once, when the Signal it was created from next broadcasts.
type Waiter struct {
	c chan struct{}
}

// C returns the channel that closes on broadcast.
func (w Waiter) C() <-chan struct{} {
	return w.c
}

// Signal is a one-shot, fan-out readiness event: every Waiter created
// before a Broadcast call fires when that call happens; Broadcast then
// resets, so Waiters created afterwards wait for the *next* broadcast.
// This is exactly the "one-shot readiness event fired when the first
// channel to a peer opens" primitive the peer registry and arbiter
// waiter lists are built on — it deliberately does not remember that it
// already fired, unlike a sync.Once-guarded channel would.
type Signal struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// NewWaiter registers a new waiter for the next Broadcast.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := make(chan struct{})
	s.waiters = append(s.waiters, c)
	return Waiter{c: c}
}

// Broadcast wakes every waiter registered since the last Broadcast (or
// since creation) and clears the list.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, c := range waiters {
		close(c)
	}
}
