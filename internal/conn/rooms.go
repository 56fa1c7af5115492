package conn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

var ErrRoomCreate = errors.New("create room failed")

// RoomClient talks to the server's HTTP API.
type RoomClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewRoomClient(baseURL string, hc *http.Client) *RoomClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &RoomClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

// CreateRoom posts to /api/rooms and returns the new room code.
func (c *RoomClient) CreateRoom(ctx context.Context, settings map[string]any) (string, error) {
	body, err := json.Marshal(types.CreateRoomRequest{Settings: settings})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/rooms", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoomCreate, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoomCreate, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrRoomCreate, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out types.CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRoomCreate, err)
	}
	if out.RoomCode == "" {
		return "", fmt.Errorf("%w: empty room code", ErrRoomCreate)
	}
	return out.RoomCode, nil
}
