package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Sternrassler/brewery-pager/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Message types sent to WebSocket clients.
const (
	wsTypeEvent = "event"
	wsTypeError = "error"
	wsTypePong  = "pong"
)

// wsMessage is one frame sent to a stream client.
type wsMessage struct {
	Type  string         `json:"type"`
	Event *eventResponse `json:"event,omitempty"`
	Error string         `json:"error,omitempty"`
}

// wsControl is one frame received from a stream client.
type wsControl struct {
	Action string `json:"action"`
}

// handleStreamWS replays the type's event log, then forwards live events.
// Clients drive loading with {"action":"append"} and {"action":"prepend"}.
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	pager := s.registry.GetOrCreateStream(chi.URLParam(r, "type"))
	logger := zerolog.Ctx(r.Context()).With().Str("type", pager.Type()).Logger()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	control := make(chan wsMessage, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		defer cancel()
		writeLoop(ctx, conn, pager.Subscribe(ctx), control)
	}()

	readLoop(ctx, conn, pager, control, logger)
	cancel()
	<-done
}

func readLoop(ctx context.Context, conn *websocket.Conn, pager *pagination.Pager, control chan<- wsMessage, logger zerolog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reply := func(msg wsMessage) bool {
		select {
		case control <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("WebSocket closed unexpectedly")
			}
			return
		}

		var ctrl wsControl
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			if !reply(wsMessage{Type: wsTypeError, Error: "invalid control message"}) {
				return
			}
			continue
		}

		var demandErr error
		switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
		case "append":
			_, demandErr = pager.Append(ctx)
		case "prepend":
			_, demandErr = pager.Prepend(ctx)
		case "ping":
			if !reply(wsMessage{Type: wsTypePong}) {
				return
			}
			continue
		default:
			demandErr = errors.New("unsupported action " + ctrl.Action)
		}

		// Load failures already reach the client as error events.
		var loadErr *pagination.LoadError
		if demandErr != nil && !errors.As(demandErr, &loadErr) {
			if !reply(wsMessage{Type: wsTypeError, Error: demandErr.Error()}) {
				return
			}
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan pagination.Event, control <-chan wsMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(msg wsMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			resp := newEventResponse(ev)
			if err := write(wsMessage{Type: wsTypeEvent, Event: &resp}); err != nil {
				return
			}
		case msg := <-control:
			if err := write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
