// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "runtime"

// Parallel runs a batch of zero-argument functions across GOMAXPROCS
// workers. enqueue is called once, in its own goroutine, to feed the work
// queue; it must simply return once there's no more work and must not
// close the queue itself, since Parallel closes the queue for it when
// enqueue returns. The returned channel is closed once every queued
// function has run.
func Parallel(enqueue func(queue chan<- func())) <-chan struct{} {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	queue := make(chan func())
	done := make(chan struct{})

	var g Goes
	for range n {
		g.Go(func() {
			for fn := range queue {
				fn()
			}
		})
	}

	go func() {
		enqueue(queue)
		close(queue)
	}()

	go func() {
		g.Wait()
		close(done)
	}()

	return done
}
