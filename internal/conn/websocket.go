package conn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/coder/websocket"

	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

const readLimit = 1 << 20

// CloseError reports the close code the peer sent.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("connection closed: code %d %s", e.Code, e.Reason)
}

// CloseAbnormal is reported when the transport died without a close frame.
const CloseAbnormal = int(websocket.StatusAbnormalClosure)

// CloseCode extracts the close code from a read or dial error.
func CloseCode(err error) int {
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	if code := websocket.CloseStatus(err); code != -1 {
		return int(code)
	}
	return CloseAbnormal
}

// Stream is one live transport.
type Stream interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}

type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Stream, error)
}

// WebsocketDialer dials with github.com/coder/websocket.
type WebsocketDialer struct {
	HTTPClient *http.Client
}

func (d WebsocketDialer) Dial(ctx context.Context, rawURL string) (Stream, error) {
	c, resp, err := websocket.Dial(ctx, rawURL, &websocket.DialOptions{HTTPClient: d.HTTPClient})
	if err != nil {
		if resp != nil {
			switch resp.StatusCode {
			case http.StatusForbidden, http.StatusNotFound:
				// A room the server does not know is refused before the
				// upgrade; treat it like the 4000 close frame.
				return nil, fmt.Errorf("dial %s: %w: %w", rawURL,
					&CloseError{Code: types.CloseRoomNotFound, Reason: resp.Status}, err)
			}
			return nil, fmt.Errorf("dial %s: %s: %w", rawURL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	c.SetReadLimit(readLimit)
	return &wsStream{c: c}, nil
}

type wsStream struct {
	c *websocket.Conn
}

func (s *wsStream) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := s.c.Read(ctx)
		if err != nil {
			if code := websocket.CloseStatus(err); code != -1 {
				var ce websocket.CloseError
				errors.As(err, &ce)
				return nil, &CloseError{Code: int(code), Reason: ce.Reason}
			}
			return nil, err
		}
		if typ == websocket.MessageText {
			return data, nil
		}
	}
}

func (s *wsStream) Write(ctx context.Context, data []byte) error {
	return s.c.Write(ctx, websocket.MessageText, data)
}

func (s *wsStream) Close(code int, reason string) error {
	return s.c.Close(websocket.StatusCode(code), reason)
}

// Target identifies the room and player a connection is for.
type Target struct {
	RoomCode   string
	PlayerName string
	PlayerID   string
}

// URL builds ws(s)://host/ws/<room>/<name>[?player_id=<id>] from an
// http(s) or ws(s) base URL.
func (t Target) URL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}

	raw := u.Scheme + "://" + u.Host + strings.TrimRight(u.EscapedPath(), "/") +
		"/ws/" + url.PathEscape(t.RoomCode) + "/" + url.PathEscape(t.PlayerName)
	if t.PlayerID != "" {
		raw += "?" + url.Values{"player_id": {t.PlayerID}}.Encode()
	}
	return raw, nil
}
