package arbiter

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/nyric/actorio/actorid"
)

// TestRegistryAddressesMatchesModelFuzz drives random register/unregister
// sequences across a handful of names and uids and checks that
// Addresses(name) always has exactly as many entries as a plain-map model
// of the same operations — Find must also agree with the model on
// presence, though not necessarily on which address it picks.
func TestRegistryAddressesMatchesModelFuzz(t *testing.T) {
	fz := fuzz.New().NilChance(0)

	const names = 3
	uids := make([][]actorid.ID, names)
	for i := range uids {
		name := fmt.Sprintf("n%d", i)
		uids[i] = []actorid.ID{actorid.New(name), actorid.New(name), actorid.New(name)}
	}

	for trial := 0; trial < 30; trial++ {
		var seed uint64
		fz.Fuzz(&seed)
		rng := rand.New(rand.NewSource(int64(seed)))

		r := NewRegistry()
		model := make(map[actorid.ID]bool)

		var opCount int
		fz.Fuzz(&opCount)
		n := (opCount%40 + 40) % 40

		for i := 0; i < n; i++ {
			ni := rng.Intn(names)
			ui := rng.Intn(len(uids[ni]))
			uid := uids[ni][ui]

			if rng.Intn(2) == 0 {
				r.Register(uid, "sockaddr")
				model[uid] = true
			} else {
				r.Unregister(uid)
				delete(model, uid)
			}
		}

		for ni := range uids {
			name := uids[ni][0].Name
			var want int
			for _, uid := range uids[ni] {
				if model[uid] {
					want++
				}
			}
			require.Len(t, r.Addresses(name), want)

			_, found := r.Find(name)
			require.Equal(t, want > 0, found)
		}
	}
}
