package rpc

import (
	"context"
	"sync"

	"github.com/nyric/actorio/metrics"
	"github.com/nyric/actorio/wire"
)

var activeTasks = metrics.LazyLoadGauge("rpc_active_tasks")

// Task is an in-flight invocation on the responder side: its call id, the
// cancellation handle of its task scope, and the name of the function
// running. It lives in its owning channel's task list so a channel
// teardown can cancel every task it's still running.
type Task struct {
	CallID wire.CallID
	Func   string
	cancel context.CancelFunc
}

// Cancel interrupts the task at its next suspension point.
func (t *Task) Cancel() {
	t.cancel()
}

// TaskTable is the per-channel map of live Tasks the MessageLoop owning
// that channel maintains, plus the actor-wide "no more rpc tasks across
// any channel" signal.
type TaskTable struct {
	mu        sync.Mutex
	byChannel map[wire.Channel]map[wire.CallID]*Task
	noTasksCh chan struct{}
	total     int
}

func NewTaskTable() *TaskTable {
	return &TaskTable{byChannel: make(map[wire.Channel]map[wire.CallID]*Task)}
}

func (t *TaskTable) add(ch wire.Channel, task *Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.byChannel[ch]
	if !ok {
		m = make(map[wire.CallID]*Task)
		t.byChannel[ch] = m
	}
	m[task.CallID] = task
	t.total++
	activeTasks().Set(int64(t.total))
}

func (t *TaskTable) remove(ch wire.Channel, cid wire.CallID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if m, ok := t.byChannel[ch]; ok {
		if _, ok := m[cid]; ok {
			delete(m, cid)
			t.total--
		}
		if len(m) == 0 {
			delete(t.byChannel, ch)
		}
	}
	t.signalIfEmptyLocked()
	activeTasks().Set(int64(t.total))
}

// cancelChannel cancels and removes every task registered against ch —
// called when that channel's MessageLoop tears down or receives the
// terminator sentinel.
func (t *TaskTable) cancelChannel(ch wire.Channel) {
	t.mu.Lock()
	m := t.byChannel[ch]
	delete(t.byChannel, ch)
	tasks := make([]*Task, 0, len(m))
	for _, task := range m {
		tasks = append(tasks, task)
	}
	t.total -= len(m)
	t.signalIfEmptyLocked()
	activeTasks().Set(int64(t.total))
	t.mu.Unlock()

	for _, task := range tasks {
		task.Cancel()
	}
}

// CancelAll cancels every task across every channel — step 1 of the
// actor-wide cancellation protocol.
func (t *TaskTable) CancelAll() {
	t.mu.Lock()
	var tasks []*Task
	for _, m := range t.byChannel {
		for _, task := range m {
			tasks = append(tasks, task)
		}
	}
	t.mu.Unlock()

	for _, task := range tasks {
		task.Cancel()
	}
}

// Empty reports whether no channel currently has any task registered.
func (t *TaskTable) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byChannel) == 0
}

// NoMoreTasks returns a channel that closes once no channel has any
// tasks left — invariant 4 of spec.md §3.
func (t *TaskTable) NoMoreTasks() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.byChannel) == 0 {
		out := make(chan struct{})
		close(out)
		return out
	}
	if t.noTasksCh == nil {
		t.noTasksCh = make(chan struct{})
	}
	return t.noTasksCh
}

// must be called with t.mu held.
func (t *TaskTable) signalIfEmptyLocked() {
	if len(t.byChannel) == 0 && t.noTasksCh != nil {
		close(t.noTasksCh)
		t.noTasksCh = nil
	}
}
