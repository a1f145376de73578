package actor

import (
	"time"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/admin"
	"github.com/nyric/actorio/internal/xlog"
)

// startAdmin binds Config.AdminAddr, if set, and records a stop func
// that teardown runs. The admin surface is ambient tooling (spec.md
// §10): a failure here is logged, never fatal to Start.
func (a *Actor) startAdmin() {
	if a.cfg.AdminAddr == "" {
		return
	}
	url, stop, err := admin.StartServer(a.cfg.AdminAddr, xlog.Level(), a.peers, a.hub)
	if err != nil {
		log.Warn("start admin server failed", "err", err)
		return
	}
	log.Info("admin server listening", "url", url)
	a.adminURL = url
	a.adminStop = stop
}

func (a *Actor) publishPeerConnected(remote actorid.ID) {
	a.hub.Publish(admin.Event{Type: "peer_connected", Peer: remote.String(), At: time.Now().UnixNano()})
}

func (a *Actor) publishPeerDropped(remote actorid.ID) {
	a.hub.Publish(admin.Event{Type: "peer_dropped", Peer: remote.String(), At: time.Now().UnixNano()})
}

func (a *Actor) publishTaskStarted(fn string) {
	a.hub.Publish(admin.Event{Type: "task_started", Func: fn, At: time.Now().UnixNano()})
}

func (a *Actor) publishTaskFinished(fn string) {
	a.hub.Publish(admin.Event{Type: "task_finished", Func: fn, At: time.Now().UnixNano()})
}
