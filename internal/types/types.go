package types

import (
	"encoding/json"
	"fmt"

	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

type ClientMessage struct {
	Action    types.Action     `json:"action"`
	Word      string           `json:"word,omitempty"`
	CardIndex *int             `json:"card_index,omitempty"`
	Priority  []types.Category `json:"priority,omitempty"`
	TargetID  string           `json:"target_id,omitempty"`
}

// ServerMessage is a decoded inbound frame. Exactly one of Snapshot or
// ViewHand is set for game_state and view_hand; Message carries the text of
// error and return_to_title.
type ServerMessage struct {
	Type     types.MessageType
	Message  string
	Snapshot *types.GameSnapshot
	ViewHand *types.HandView
}

type envelope struct {
	Type    types.MessageType `json:"type"`
	Message string            `json:"message"`
}

// Decode parses one inbound frame. Unknown types are returned with only Type
// set so the caller can log and ignore them.
func Decode(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return ServerMessage{}, fmt.Errorf("decode envelope: %w", err)
	}

	msg := ServerMessage{Type: env.Type}
	switch env.Type {
	case types.MsgGameState:
		var snap types.GameSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return ServerMessage{}, fmt.Errorf("decode game_state: %w", err)
		}
		msg.Snapshot = &snap
		msg.Message = snap.Message
	case types.MsgViewHand:
		var hv types.HandView
		if err := json.Unmarshal(data, &hv); err != nil {
			return ServerMessage{}, fmt.Errorf("decode view_hand: %w", err)
		}
		msg.ViewHand = &hv
	case types.MsgError, types.MsgReturnToTitle:
		msg.Message = env.Message
	}
	return msg, nil
}
