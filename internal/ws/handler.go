package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/internal/engine"
	"github.com/DoyleJ11/wordchain-client/internal/hub"
	"github.com/DoyleJ11/wordchain-client/internal/session"
)

const writeTimeout = 3 * time.Second

// Frame is what the renderer receives.
//
//	{type: view,  version, view: ViewModel}
//	{type: error, message}  the last intent could not be parsed
type Frame struct {
	Type    string            `json:"type"`
	Version int               `json:"version,omitempty"`
	View    *engine.ViewModel `json:"view,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Handler streams every published view to the renderer and forwards its
// intents to the session.
func Handler(h *hub.Hub, inbox chan<- session.Msg, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		id := uuid.NewString()
		log := log.With(zap.String("renderer", id))
		out := make(chan hub.Frame, 8)

		if !h.Subscribe(id, out) {
			conn.Close(websocket.StatusTryAgainLater, "shutting down")
			return
		}
		defer h.Unsubscribe(id)
		log.Debug("renderer connected")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case f, ok := <-out:
					if !ok {
						// The hub dropped us: we fell behind or it shut down.
						if writeCtx.Err() == nil {
							conn.Close(websocket.StatusTryAgainLater, "renderer too slow")
						}
						return
					}
					view := f.View
					if err := write(writeCtx, conn, Frame{Type: "view", Version: f.Version, View: &view}); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Debug("renderer left")
				default:
					log.Debug("renderer read failed", zap.Error(err))
				}
				return
			}

			msg, err := session.ParseIntent(data)
			if err != nil {
				_ = write(r.Context(), conn, Frame{Type: "error", Message: err.Error()})
				continue
			}

			select {
			case inbox <- msg:
			case <-r.Context().Done():
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
