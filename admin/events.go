// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nyric/actorio/internal/xlog"
)

var log = xlog.WithContext("pkg", "admin")

const (
	// pongWait/pingPeriod: keep the websocket peer's read deadline one ping
	// ahead of the ping cadence so a missed pong reliably trips it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 7) / 10

	eventQueueSize = 64
)

// Event is one line of the GET /admin/events feed.
type Event struct {
	Type string `json:"type"` // "peer_connected", "peer_dropped", "task_started", "task_finished"
	Peer string `json:"peer,omitempty"`
	Func string `json:"func,omitempty"`
	At   int64  `json:"at"` // unix nanos
}

// Hub fans Events out to every currently-connected /admin/events websocket.
// A slow or dead subscriber never blocks Publish: when its queue is full,
// the event is dropped for that subscriber instead of backing up the
// publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish fans e out to every current subscriber.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			log.Debug("admin events subscriber too slow, dropping event", "type", e.Type)
		}
	}
}

// Subscribe registers a new listener, returning its feed and an
// unsubscribe func that must be called exactly once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, eventQueueSize)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

var upgrader = websocket.Upgrader{
	EnableCompression: true,
	CheckOrigin:       func(*http.Request) bool { return true },
}

// EventsHandler upgrades to a websocket and streams hub's events as JSON
// until the client disconnects, pinging on pingPeriod to detect a dead
// peer before pongWait elapses.
func EventsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("upgrade to websocket", "err", err)
			return
		}

		closed := make(chan struct{})
		go readPump(conn, closed)

		feed, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		pipeEvents(conn, feed, closed)
	}
}

// readPump's only job is detecting the client going away: it discards
// everything it reads and resets the read deadline on every pong.
func readPump(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadLimit(4096)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Debug("set initial read deadline", "err", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug("admin events websocket read", "err", err)
			return
		}
	}
}

func pipeEvents(conn *websocket.Conn, feed <-chan Event, closed chan struct{}) {
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	defer func() {
		conn.WriteMessage(websocket.CloseMessage, closeMsg)
		conn.Close()
	}()

	for {
		select {
		case <-closed:
			return
		case e := <-feed:
			if err := conn.WriteJSON(e); err != nil {
				log.Debug("write admin event", "err", err)
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("write admin events ping", "err", err)
				return
			}
		}
	}
}
