package arbiter

import (
	"sync"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/co"
)

// Registry is the arbiter's name-to-address table: actor name to every
// currently-registered socket address under that name, plus the
// per-name wait-for-actor waiter lists. Per spec.md §9's open question,
// a waiter list holds only *co.Signal values — an address and a waiter
// are never mixed in the same slot.
type Registry struct {
	mu      sync.Mutex
	entries map[string]map[actorid.ID]string // name -> uid -> sockaddr
	waiters map[string][]*co.Signal
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]map[actorid.ID]string),
		waiters: make(map[string][]*co.Signal),
	}
}

// Register inserts uid -> sockaddr and fires every waiter registered
// against uid.Name.
func (r *Registry) Register(uid actorid.ID, sockaddr string) {
	r.mu.Lock()
	m, ok := r.entries[uid.Name]
	if !ok {
		m = make(map[actorid.ID]string)
		r.entries[uid.Name] = m
	}
	m[uid] = sockaddr
	waiters := r.waiters[uid.Name]
	delete(r.waiters, uid.Name)
	r.mu.Unlock()

	for _, w := range waiters {
		w.Broadcast()
	}
}

// Unregister deletes uid. Absent entries are not an error.
func (r *Registry) Unregister(uid actorid.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.entries[uid.Name]
	if !ok {
		return
	}
	delete(m, uid)
	if len(m) == 0 {
		delete(r.entries, uid.Name)
	}
}

// Find returns the address of an arbitrary currently-registered entry for
// name (implementation-defined pick among map iteration order), or
// ("", false) if none exist.
func (r *Registry) Find(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, addr := range r.entries[name] {
		return addr, true
	}
	return "", false
}

// Addresses returns every currently-registered address under name.
func (r *Registry) Addresses(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addressesLocked(name)
}

// must be called with r.mu held.
func (r *Registry) addressesLocked(name string) []string {
	m := r.entries[name]
	out := make([]string, 0, len(m))
	for _, addr := range m {
		out = append(out, addr)
	}
	return out
}

// AddressesOrWait returns name's currently-registered addresses if any
// exist. Otherwise it installs a waiter for name, atomically with that
// read, and returns it instead — a Register landing between the read and
// the install can never fire against an empty waiter list and be lost.
// The Signal itself does not remember a Broadcast made before the
// caller's NewWaiter, so a caller re-reads Addresses after creating its
// Waiter. Exactly one of addrs and sig is non-nil/non-empty.
func (r *Registry) AddressesOrWait(name string) (addrs []string, sig *co.Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if addrs := r.addressesLocked(name); len(addrs) > 0 {
		return addrs, nil
	}
	s := &co.Signal{}
	r.waiters[name] = append(r.waiters[name], s)
	return nil, s
}
