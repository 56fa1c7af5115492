// Package store persists the session identity and user preferences.
package store

import (
	"encoding/json"
	"slices"
	"strconv"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/internal/logging"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

const (
	KeyPlayerID      = "playerId"
	KeyRoomCode      = "roomCode"
	KeyPlayerName    = "playerName"
	KeyCardPriority  = "cardPriority"
	KeyAutoSelect    = "autoSelect"
	KeyFontSize      = "fontSize"
	KeyCompactLayout = "compactLayout"
)

type Identity struct {
	PlayerID   string `json:"player_id,omitempty"`
	RoomCode   string `json:"room_code,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
}

// Complete reports whether the identity is enough to resume a session.
func (i Identity) Complete() bool {
	return i.PlayerID != "" && i.RoomCode != "" && i.PlayerName != ""
}

type FontSize string

const (
	FontSmall  FontSize = "small"
	FontMedium FontSize = "medium"
	FontLarge  FontSize = "large"
)

func (f FontSize) Valid() bool {
	return f == FontSmall || f == FontMedium || f == FontLarge
}

type Preferences struct {
	CategoryPriority []types.Category `json:"category_priority"`
	AutoSelect       bool             `json:"auto_select"`
	FontSize         FontSize         `json:"font_size"`
	CompactLayout    bool             `json:"compact_layout"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		CategoryPriority: slices.Clone(types.Categories),
		FontSize:         FontMedium,
	}
}

// ValidPriority reports whether p is a permutation of every category.
func ValidPriority(p []types.Category) bool {
	if len(p) != len(types.Categories) {
		return false
	}
	seen := make(map[types.Category]bool, len(p))
	for _, c := range p {
		if !c.Valid() || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

// Store owns identity and preferences. Loads and saves never fail the
// caller: unreadable or corrupt values degrade to defaults and write errors
// are logged.
type Store struct {
	kv  KV
	log *zap.Logger
}

func New(kv KV, log *zap.Logger) *Store {
	return &Store{kv: kv, log: log.Named("store")}
}

func (s *Store) get(key string) (string, bool) {
	v, ok, err := s.kv.Get(key)
	if err != nil {
		s.log.Warn("read failed, using default", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

func (s *Store) LoadIdentity() Identity {
	id := Identity{}
	id.PlayerID, _ = s.get(KeyPlayerID)
	id.RoomCode, _ = s.get(KeyRoomCode)
	id.PlayerName, _ = s.get(KeyPlayerName)
	return id
}

// SaveIdentity writes the three identity keys. Empty fields are removed.
func (s *Store) SaveIdentity(id Identity) {
	err := multierr.Combine(
		s.put(KeyPlayerID, id.PlayerID),
		s.put(KeyRoomCode, id.RoomCode),
		s.put(KeyPlayerName, id.PlayerName),
	)
	if err != nil {
		s.log.Error("save identity", zap.Error(err))
		return
	}
	s.log.Debug("identity saved", logging.Player(id.PlayerID), zap.String("room", id.RoomCode))
}

// ClearIdentity removes the identity keys. Preferences are never touched.
func (s *Store) ClearIdentity() {
	err := multierr.Combine(
		s.kv.Remove(KeyPlayerID),
		s.kv.Remove(KeyRoomCode),
		s.kv.Remove(KeyPlayerName),
	)
	if err != nil {
		s.log.Error("clear identity", zap.Error(err))
	}
}

func (s *Store) put(key, value string) error {
	if value == "" {
		return s.kv.Remove(key)
	}
	return s.kv.Set(key, value)
}

func (s *Store) LoadPreferences() Preferences {
	p := DefaultPreferences()

	if raw, ok := s.get(KeyCardPriority); ok {
		var prio []types.Category
		if err := json.Unmarshal([]byte(raw), &prio); err != nil || !ValidPriority(prio) {
			s.log.Warn("corrupt value, using default", zap.String("key", KeyCardPriority), zap.String("value", raw))
		} else {
			p.CategoryPriority = prio
		}
	}

	p.AutoSelect = s.loadBool(KeyAutoSelect, p.AutoSelect)
	p.CompactLayout = s.loadBool(KeyCompactLayout, p.CompactLayout)

	if raw, ok := s.get(KeyFontSize); ok {
		if fs := FontSize(raw); fs.Valid() {
			p.FontSize = fs
		} else {
			s.log.Warn("corrupt value, using default", zap.String("key", KeyFontSize), zap.String("value", raw))
		}
	}
	return p
}

func (s *Store) loadBool(key string, def bool) bool {
	raw, ok := s.get(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		s.log.Warn("corrupt value, using default", zap.String("key", key), zap.String("value", raw))
		return def
	}
	return b
}

func (s *Store) SavePreferences(p Preferences) {
	prio := p.CategoryPriority
	if !ValidPriority(prio) {
		prio = types.Categories
	}
	raw, _ := json.Marshal(prio)
	fs := p.FontSize
	if !fs.Valid() {
		fs = FontMedium
	}

	err := multierr.Combine(
		s.kv.Set(KeyCardPriority, string(raw)),
		s.kv.Set(KeyAutoSelect, strconv.FormatBool(p.AutoSelect)),
		s.kv.Set(KeyFontSize, string(fs)),
		s.kv.Set(KeyCompactLayout, strconv.FormatBool(p.CompactLayout)),
	)
	if err != nil {
		s.log.Error("save preferences", zap.Error(err))
	}
}
