package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/DoyleJ11/wordchain-client/internal/store"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

var ErrBadIntent = errors.New("invalid intent")

// Intent is the renderer's JSON request shape, shared by POST /intents and
// the bridge websocket.
type Intent struct {
	Type     string           `json:"type"`
	RoomCode string           `json:"room_code,omitempty"`
	Name     string           `json:"name,omitempty"`
	Solo     bool             `json:"solo,omitempty"`
	Settings map[string]any   `json:"settings,omitempty"`
	Word     string           `json:"word,omitempty"`
	Index    *int             `json:"index,omitempty"`
	Priority []types.Category `json:"priority,omitempty"`
	Enabled  *bool            `json:"enabled,omitempty"`
	FontSize store.FontSize   `json:"font_size,omitempty"`
	Compact  *bool            `json:"compact,omitempty"`
	TargetID string           `json:"target_id,omitempty"`
}

// ParseIntent decodes one intent into the session message it requests.
func ParseIntent(data []byte) (Msg, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadIntent, err)
	}
	return in.Msg()
}

func (in Intent) Msg() (Msg, error) {
	switch in.Type {
	case "join":
		return Join{RoomCode: in.RoomCode, PlayerName: in.Name}, nil
	case "create":
		return CreateRoom{PlayerName: in.Name, Settings: in.Settings, Solo: in.Solo}, nil
	case "resume":
		return Resume{}, nil
	case "start":
		return StartGame{}, nil
	case "word":
		return SetWord{Word: in.Word}, nil
	case "select":
		if in.Index == nil {
			return nil, fmt.Errorf("%w: select needs index", ErrBadIntent)
		}
		return SelectCard{Index: *in.Index}, nil
	case "submit":
		return Submit{}, nil
	case "reroll":
		return Reroll{}, nil
	case "oppose":
		return ToggleOppose{}, nil
	case "approve":
		return Approve{}, nil
	case "priority":
		if !store.ValidPriority(in.Priority) {
			return nil, fmt.Errorf("%w: priority must order char, row and length", ErrBadIntent)
		}
		return SetPriority{Priority: in.Priority}, nil
	case "auto_select":
		if in.Enabled == nil {
			return nil, fmt.Errorf("%w: auto_select needs enabled", ErrBadIntent)
		}
		return SetAutoSelect{Enabled: *in.Enabled}, nil
	case "display":
		if in.FontSize != "" && !in.FontSize.Valid() {
			return nil, fmt.Errorf("%w: font size %q", ErrBadIntent, in.FontSize)
		}
		return SetDisplay{FontSize: in.FontSize, Compact: in.Compact}, nil
	case "view_hand":
		if in.TargetID == "" {
			return nil, fmt.Errorf("%w: view_hand needs target_id", ErrBadIntent)
		}
		return RequestHand{TargetID: in.TargetID}, nil
	case "close_viewer":
		return CloseHandViewer{}, nil
	case "dismiss":
		return DismissNotice{}, nil
	case "exit":
		return Exit{}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrBadIntent, in.Type)
}
