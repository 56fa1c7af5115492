package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/internal/hub"
	"github.com/DoyleJ11/wordchain-client/internal/session"
)

const maxIntentBytes = 64 << 10

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// GetView returns the latest ViewModel.
func GetView(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.LatestFrame(r.Context())
		if err != nil {
			http.Error(w, "view unavailable", http.StatusServiceUnavailable)
			return
		}
		if f.Version == 0 {
			http.Error(w, "no view yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Version int `json:"version"`
			View    any `json:"view"`
		}{f.Version, f.View})
	}
}

// PostIntent queues one intent for the session.
func PostIntent(inbox chan<- session.Msg, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIntentBytes))
		if err != nil {
			http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
			return
		}
		msg, err := session.ParseIntent(body)
		if err != nil {
			status := http.StatusBadRequest
			if !errors.Is(err, session.ErrBadIntent) {
				status = http.StatusInternalServerError
			}
			http.Error(w, err.Error(), status)
			return
		}

		select {
		case inbox <- msg:
			w.WriteHeader(http.StatusAccepted)
		case <-r.Context().Done():
			log.Debug("intent dropped", zap.Error(r.Context().Err()))
		}
	}
}

// RoomQR renders an invite link for the current room as a PNG. The link
// points at base (query parameter) or the configured server URL.
func RoomQR(h *hub.Hub, serverURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := h.LatestFrame(r.Context())
		if err != nil || f.View.RoomCode == "" {
			http.Error(w, "not in a room", http.StatusNotFound)
			return
		}

		base := r.URL.Query().Get("base")
		if base == "" {
			base = serverURL
		}
		link, err := InviteLink(base, f.View.RoomCode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(png)
	}
}

// InviteLink builds <base>/?room=<code>.
func InviteLink(base, room string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "", errors.New("base must be an absolute url")
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = url.Values{"room": {room}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}
