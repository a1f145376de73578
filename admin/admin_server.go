// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nyric/actorio/co"
	"github.com/nyric/actorio/metrics"
	"github.com/nyric/actorio/peer"
)

// Router mounts the full admin surface (spec.md §10): loglevel
// (handlers.go), peers, metrics and the live events websocket. This is
// ambient tooling, not part of the wire protocol - disabling the admin
// server entirely (Config.AdminAddr == "") never changes RPC semantics.
func Router(logLevel *slog.LevelVar, peers *peer.Registry, hub *Hub) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/admin/loglevel", logLevelHandler(logLevel))
	router.HandleFunc("/admin/peers", PeersHandler(peers))
	router.PathPrefix("/admin/metrics").Handler(http.StripPrefix("/admin/metrics", metrics.HTTPHandler()))
	router.HandleFunc("/admin/events", EventsHandler(hub))
	return handlers.CompressHandler(router)
}

// StartServer binds addr and serves Router in the background, returning
// the base admin URL and a stop func that closes the listener and waits
// for the server goroutine to exit.
func StartServer(addr string, logLevel *slog.LevelVar, peers *peer.Registry, hub *Hub) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           Router(logLevel, peers, hub),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		goes.Wait()
	}, nil
}
