// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"encoding/json"
	"net/http"

	"github.com/nyric/actorio/peer"
)

// peerEntry is one row of the GET /admin/peers response: a remote actor
// identity and how many live channels this actor currently holds to it
// (normally one; peer.Registry tolerates more).
type peerEntry struct {
	Name     string `json:"name"`
	UID      string `json:"uid"`
	Channels int    `json:"channels"`
}

// PeersHandler dumps reg's current peer set as JSON.
func PeersHandler(reg *peer.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := reg.Snapshot()
		entries := make([]peerEntry, 0, len(snapshot))
		for id, n := range snapshot {
			entries = append(entries, peerEntry{Name: id.Name, UID: id.UID, Channels: n})
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to encode response")
		}
	}
}
