package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// ws streams the game's StatusResponse after every accepted action. Clients may send
// {"type":"request_status"} to get the current status at any time.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := playerID(r)
	ch, unsub, err := h.svc.Subscribe(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		unsub()
		return
	}
	defer conn.Close()

	send := make(chan []byte, 16)
	sendStatus := func() bool {
		gs, ok := h.svc.Get(id)
		if !ok {
			return false
		}
		msg, _ := json.Marshal(wsMessage{Type: "status", Payload: mustMarshal(newStatus(*gs, pid))})
		select {
		case send <- msg:
		default:
		}
		return true
	}
	sendStatus()

	// Updates from the service only signal a change; the status is read fresh so every client
	// sees its own seat. A dropped subscription closes the connection, which ends the read loop.
	done := make(chan struct{})
	defer func() {
		unsub()
		close(done)
	}()
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-ch:
				if !ok || !sendStatus() {
					conn.Close()
					return
				}
			}
		}
	}()
	go func() {
		if err := writeWSWithHeartbeat(conn, send, done, h.heartbeat); err != nil {
			h.log.Debug().Err(err).Str("game", id).Msg("websocket write")
			conn.Close()
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			sendStatus()
		}
	}
}

func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}, idle time.Duration) error {
	ticker := time.NewTicker(idle)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload := mustMarshal(wsMessage{Type: "ping"})

	for {
		select {
		case <-done:
			return nil
		case msg := <-send:
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < idle {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
