// Package dispatch encodes outbound intents. Legality is the server's call;
// only the checks needed to build a well-formed message happen here.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	internaltypes "github.com/DoyleJ11/wordchain-client/internal/types"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

var (
	ErrEmptyWord      = errors.New("enter a word")
	ErrNoCardSelected = errors.New("select a card first")
	ErrNoTarget       = errors.New("no player to view")
)

// Sender delivers one encoded frame. conn.Manager satisfies it.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

type Dispatcher struct {
	s Sender
}

func New(s Sender) *Dispatcher { return &Dispatcher{s: s} }

func (d *Dispatcher) StartGame(ctx context.Context) error {
	return d.send(ctx, internaltypes.ClientMessage{Action: types.ActionStartGame})
}

// PlayWord sends word with the chosen card. With auto set the index is
// replaced by types.AutoSelectIndex and the server picks the card.
func (d *Dispatcher) PlayWord(ctx context.Context, word string, cardIndex int, auto bool) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return ErrEmptyWord
	}
	if auto {
		cardIndex = types.AutoSelectIndex
	} else if cardIndex < 0 {
		return ErrNoCardSelected
	}
	return d.send(ctx, internaltypes.ClientMessage{
		Action:    types.ActionPlayWord,
		Word:      word,
		CardIndex: &cardIndex,
	})
}

func (d *Dispatcher) Reroll(ctx context.Context, cardIndex int) error {
	if cardIndex < 0 {
		return ErrNoCardSelected
	}
	return d.send(ctx, internaltypes.ClientMessage{Action: types.ActionReroll, CardIndex: &cardIndex})
}

func (d *Dispatcher) Oppose(ctx context.Context) error {
	return d.send(ctx, internaltypes.ClientMessage{Action: types.ActionOppose})
}

func (d *Dispatcher) Approve(ctx context.Context) error {
	return d.send(ctx, internaltypes.ClientMessage{Action: types.ActionApprove})
}

func (d *Dispatcher) SetPriority(ctx context.Context, priority []types.Category) error {
	return d.send(ctx, internaltypes.ClientMessage{Action: types.ActionSetPriority, Priority: priority})
}

func (d *Dispatcher) RequestHand(ctx context.Context, targetID string) error {
	if targetID == "" {
		return ErrNoTarget
	}
	return d.send(ctx, internaltypes.ClientMessage{Action: types.ActionGetHand, TargetID: targetID})
}

func (d *Dispatcher) send(ctx context.Context, msg internaltypes.ClientMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Action, err)
	}
	if err := d.s.Send(ctx, payload); err != nil {
		return fmt.Errorf("send %s: %w", msg.Action, err)
	}
	return nil
}
