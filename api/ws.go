package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"multichat/chat"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is a client request on the chat socket.
type wsMessage struct {
	Type string `json:"type"` // "send" or "cancel"
	Data string `json:"data,omitempty"`
}

// handleWS streams simulated replies for one conversation. Each "send"
// message starts a reply stream; a "cancel" message or a new "send" stops the
// stream in progress.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.chats.Get(id); err != nil {
		http.Error(w, "conversation not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	// Serialise all WebSocket writes — gorilla/websocket forbids concurrent writes.
	var writeMu sync.Mutex
	writeEvent := func(ev chat.Event) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(ev)
	}

	ctx, cancelAll := context.WithCancel(r.Context())
	defer cancelAll()

	var wg sync.WaitGroup
	defer wg.Wait()
	cancelStream := func() {}
	defer func() { cancelStream() }()

	// Main loop: read client messages.
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// Client disconnected; stop any stream in progress.
			return
		}

		switch msg.Type {
		case "send":
			cancelStream()
			wg.Wait()
			var streamCtx context.Context
			streamCtx, cancelStream = context.WithCancel(ctx)
			wg.Add(1)
			go func(text string) {
				defer wg.Done()
				err := h.chats.Stream(streamCtx, id, text, writeEvent)
				if err != nil && !errors.Is(err, context.Canceled) {
					_ = writeEvent(chat.Event{Type: "error", Data: err.Error()})
				}
			}(msg.Data)
		case "cancel":
			cancelStream()
		}
	}
}
