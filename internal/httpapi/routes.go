package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/internal/hub"
	"github.com/DoyleJ11/wordchain-client/internal/session"
	"github.com/DoyleJ11/wordchain-client/internal/ws"
)

func SetupRoutes(h *hub.Hub, inbox chan<- session.Msg, serverURL string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Renderer bridge
	r.Get("/healthz", Healthz)
	r.Get("/view", GetView(h))
	r.Post("/intents", PostIntent(inbox, log))
	r.Get("/room/qr.png", RoomQR(h, serverURL))
	r.Get("/ws", ws.Handler(h, inbox, log))
	return r
}
