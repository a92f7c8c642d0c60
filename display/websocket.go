package pulsemon

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// PushInterval is how often a websocket client is checked for new state
var PushInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebsocketHandler pushes the dashboard state as JSON,
// once on connect and again whenever a protocol line changes it
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	if v.Dash == nil {
		http.Error(w, "no dashboard", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// reads only to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	state := v.Dash.Snapshot()
	if err := conn.WriteJSON(state); err != nil {
		return
	}
	last := state.Updates

	ticker := time.NewTicker(PushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			state := v.Dash.Snapshot()
			if state.Updates == last {
				continue
			}
			if err := conn.WriteJSON(state); err != nil {
				slog.Debug("Websocket write failed", slog.Any("error", err))
				return // Connection closed
			}
			last = state.Updates
		case <-closed:
			return
		}
	}
}
