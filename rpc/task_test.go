package rpc

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/wire"
)

// stubChannel is a minimal wire.Channel used only as a comparable map key
// in these tests — TaskTable never calls any of its methods.
type stubChannel struct{ id int }

func (*stubChannel) Send(context.Context, *wire.Envelope) error   { return nil }
func (*stubChannel) Recv(context.Context) (*wire.Envelope, error) { return nil, nil }
func (*stubChannel) Close() error                                 { return nil }
func (*stubChannel) Connected() bool                              { return true }
func (*stubChannel) RemoteUID() string                            { return "" }
func (*stubChannel) SetRemoteUID(string)                          {}

// TestTaskTableEmptyIffNoMoreTasksFuzz drives random add/remove/
// cancelChannel sequences across a handful of channels and asserts
// invariant 4 of spec.md §3: NoMoreTasks is signalled iff Empty reports
// true, for every prefix of every random sequence.
func TestTaskTableEmptyIffNoMoreTasksFuzz(t *testing.T) {
	fz := fuzz.New().NilChance(0).NumElements(20, 60)

	channels := make([]*stubChannel, 4)
	for i := range channels {
		channels[i] = &stubChannel{id: i}
	}

	for trial := 0; trial < 50; trial++ {
		var seed uint64
		fz.Fuzz(&seed)
		rng := rand.New(rand.NewSource(int64(seed)))

		table := NewTaskTable()
		live := map[wire.CallID]*stubChannel{}

		var opCount int
		fz.Fuzz(&opCount)
		n := (opCount%40 + 40) % 40 // clamp into [0,40)

		for i := 0; i < n; i++ {
			switch rng.Intn(3) {
			case 0: // add a fresh task on a random channel
				ch := channels[rng.Intn(len(channels))]
				cid := wire.CallID(fmt.Sprintf("trial%d-call%d", trial, i))
				task := &Task{CallID: cid, Func: "ns/fn", cancel: func() {}}
				table.add(ch, task)
				live[cid] = ch
			case 1: // remove a random live task
				for cid, ch := range live {
					table.remove(ch, cid)
					delete(live, cid)
					break
				}
			case 2: // tear down a whole channel
				ch := channels[rng.Intn(len(channels))]
				table.cancelChannel(ch)
				for cid, c := range live {
					if c == ch {
						delete(live, cid)
					}
				}
			}

			assertNoMoreTasksMatchesEmpty(t, table)
		}

		// drain whatever remains and check the invariant holds at rest too.
		table.CancelAll()
		for cid, ch := range live {
			table.remove(ch, cid)
		}
		assertNoMoreTasksMatchesEmpty(t, table)
		require.True(t, table.Empty())
	}
}

func assertNoMoreTasksMatchesEmpty(t *testing.T, table *TaskTable) {
	t.Helper()
	empty := table.Empty()
	select {
	case <-table.NoMoreTasks():
		require.True(t, empty, "NoMoreTasks fired while a task remains")
	default:
		require.False(t, empty, "Empty() true but NoMoreTasks did not fire")
	}
}
