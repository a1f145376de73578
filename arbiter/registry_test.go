package arbiter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actorid"
)

// TestAddressesOrWaitIsAtomicWithRegister exercises the race the old two-call
// Addresses-then-Wait sequence was exposed to: a Register landing between
// the read and the waiter install. AddressesOrWait folds both into one
// locked section, so a Register issued strictly after AddressesOrWait
// returns a waiter is guaranteed to wake it, with no window to miss.
func TestAddressesOrWaitIsAtomicWithRegister(t *testing.T) {
	r := NewRegistry()

	addrs, sig := r.AddressesOrWait("late")
	require.Nil(t, addrs)
	require.NotNil(t, sig)

	waiter := sig.NewWaiter()

	uid := actorid.New("late")
	r.Register(uid, "127.0.0.1:9")

	select {
	case <-waiter.C():
	default:
		t.Fatal("waiter did not fire after Register")
	}

	got, sig := r.AddressesOrWait("late")
	require.Nil(t, sig)
	require.Equal(t, []string{"127.0.0.1:9"}, got)
}

// TestAddressesOrWaitReturnsExistingAddresses checks the already-registered
// fast path never installs a waiter.
func TestAddressesOrWaitReturnsExistingAddresses(t *testing.T) {
	r := NewRegistry()
	uid := actorid.New("ready")
	r.Register(uid, "127.0.0.1:10")

	addrs, sig := r.AddressesOrWait("ready")
	require.Nil(t, sig)
	require.Equal(t, []string{"127.0.0.1:10"}, addrs)
}
