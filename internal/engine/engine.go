package engine

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/DoyleJ11/wordchain-client/internal/conn"
	"github.com/DoyleJ11/wordchain-client/internal/store"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

var ErrUnsupportedInput = errors.New("unsupported input")
var ErrCardOutOfRange = errors.New("card index out of range")
var ErrNameRequired = errors.New("enter a player name")
var ErrRoomCode = errors.New("enter a valid 4-character room code")
var ErrNoVote = errors.New("no vote is waiting for you")

const RoomCodeLength = 4

type Screen string

const (
	ScreenTitle          Screen = "title"
	ScreenWaiting        Screen = "waiting"
	ScreenPlaying        Screen = "playing"
	ScreenFinishingCheck Screen = "finishing_check"
	ScreenFinished       Screen = "finished"
)

// NoticeRoomNotFound is shown on the title screen after a fatal close.
const NoticeRoomNotFound = "room not found"

type Banner struct {
	Text  string `json:"text"`
	Error bool   `json:"error"`
	Gen   uint64 `json:"-"`
}

// Local is client-only state. Nothing here comes from the server.
type Local struct {
	Word     string
	Selected int // -1 when nothing is selected
	Opposing bool
	LastWord string
	Banner   *Banner
	Notice   string
	Viewer   *types.HandView
	Conn     conn.State

	bannerSeq uint64
	synced    []types.Category // last priority sent on this connection
}

// State is everything View needs. Snapshot is replaced wholesale on every
// game_state message and never mutated.
type State struct {
	Identity store.Identity
	Prefs    store.Preferences
	Snapshot *types.GameSnapshot
	Screen   Screen
	Local    Local
}

func NewState(id store.Identity, prefs store.Preferences) State {
	return State{
		Identity: id,
		Prefs:    prefs,
		Screen:   ScreenTitle,
		Local:    Local{Selected: -1},
	}
}

type Input interface{ isInput() }

// Server messages.
type (
	Snapshot      struct{ Snap types.GameSnapshot }
	ServerError   struct{ Message string }
	ReturnToTitle struct{ Message string }
	HandViewed    struct{ View types.HandView }
)

// Connection lifecycle.
type (
	ConnConnecting struct{}
	ConnOpened     struct{}
	ConnClosed     struct {
		Code  int
		Fatal bool
	}
)

// User and timer inputs.
type (
	Joined struct {
		RoomCode   string
		PlayerName string
		PlayerID   string
	}
	WordChanged       struct{ Word string }
	CardSelected      struct{ Index int }
	WordSubmitted     struct{}
	Rerolled          struct{}
	OppositionToggled struct{}
	PrefsChanged      struct{ Prefs store.Preferences }
	LocalRejected     struct{ Err error }
	BannerExpired     struct{ Gen uint64 }
	Exited            struct{}
	HandViewerClosed  struct{}
	NoticeDismissed   struct{}
)

func (Snapshot) isInput()          {}
func (ServerError) isInput()       {}
func (ReturnToTitle) isInput()     {}
func (HandViewed) isInput()        {}
func (ConnConnecting) isInput()    {}
func (ConnOpened) isInput()        {}
func (ConnClosed) isInput()        {}
func (Joined) isInput()            {}
func (WordChanged) isInput()       {}
func (CardSelected) isInput()      {}
func (WordSubmitted) isInput()     {}
func (Rerolled) isInput()          {}
func (OppositionToggled) isInput() {}
func (PrefsChanged) isInput()      {}
func (LocalRejected) isInput()     {}
func (BannerExpired) isInput()     {}
func (Exited) isInput()            {}
func (HandViewerClosed) isInput()  {}
func (NoticeDismissed) isInput()   {}

// Effect is work the caller must perform after Apply.
type Effect interface{ isEffect() }

type (
	SaveIdentity        struct{ Identity store.Identity }
	ClearIdentity       struct{}
	SavePrefs           struct{ Prefs store.Preferences }
	SyncPriority        struct{ Priority []types.Category }
	Connect             struct{ Target conn.Target }
	CloseConnection     struct{}
	ScheduleBannerClear struct{ Gen uint64 }
	CancelBannerClear   struct{}
)

func (SaveIdentity) isEffect()        {}
func (ClearIdentity) isEffect()       {}
func (SavePrefs) isEffect()           {}
func (SyncPriority) isEffect()        {}
func (Connect) isEffect()             {}
func (CloseConnection) isEffect()     {}
func (ScheduleBannerClear) isEffect() {}
func (CancelBannerClear) isEffect()   {}

// Apply is the single entry point for state changes. On error the input is
// rejected and s is returned unchanged.
func Apply(s State, in Input) ([]Effect, State, error) {
	next := s

	switch in := in.(type) {
	case Snapshot:
		return applySnapshot(next, in.Snap)

	case ServerError:
		return []Effect{next.banner(in.Message, true)}, next, nil

	case LocalRejected:
		if in.Err == nil {
			return nil, s, nil
		}
		return []Effect{next.banner(in.Err.Error(), true)}, next, nil

	case BannerExpired:
		if next.Local.Banner != nil && next.Local.Banner.Gen == in.Gen {
			next.Local.Banner = nil
		}
		return nil, next, nil

	case ReturnToTitle:
		next.toTitle(in.Message)
		return []Effect{ClearIdentity{}, CancelBannerClear{}, CloseConnection{}}, next, nil

	case HandViewed:
		v := in.View
		next.Local.Viewer = &v
		return nil, next, nil

	case HandViewerClosed:
		next.Local.Viewer = nil
		return nil, next, nil

	case ConnConnecting:
		next.Local.Conn = conn.StateConnecting
		return nil, next, nil

	case ConnOpened:
		// The next snapshot decides the screen; nothing survives a drop
		// except identity.
		next.Local.Conn = conn.StateOpen
		next.Screen = ScreenWaiting
		next.Snapshot = nil
		next.Local.Selected = -1
		next.Local.Viewer = nil
		next.Local.synced = nil
		return nil, next, nil

	case ConnClosed:
		if !in.Fatal {
			next.Local.Conn = conn.StateReconnectScheduled
			return nil, next, nil
		}
		next.toTitle(NoticeRoomNotFound)
		return []Effect{ClearIdentity{}, CancelBannerClear{}}, next, nil

	case Joined:
		name := strings.TrimSpace(in.PlayerName)
		room := strings.TrimSpace(in.RoomCode)
		if name == "" {
			return nil, s, ErrNameRequired
		}
		if utf8.RuneCountInString(room) != RoomCodeLength {
			return nil, s, ErrRoomCode
		}
		id := in.PlayerID
		if id == "" && room == s.Identity.RoomCode && name == s.Identity.PlayerName {
			id = s.Identity.PlayerID
		}
		next.Identity = store.Identity{PlayerID: id, RoomCode: room, PlayerName: name}
		next.Screen = ScreenTitle
		next.Snapshot = nil
		next.Local = Local{Selected: -1, Conn: conn.StateConnecting, bannerSeq: s.Local.bannerSeq}
		return []Effect{
			CancelBannerClear{},
			Connect{Target: conn.Target{RoomCode: room, PlayerName: name, PlayerID: id}},
		}, next, nil

	case Exited:
		next.toTitle("")
		return []Effect{ClearIdentity{}, CancelBannerClear{}, CloseConnection{}}, next, nil

	case WordChanged:
		next.Local.Word = in.Word
		return nil, next, nil

	case CardSelected:
		if next.Snapshot == nil || in.Index < 0 || in.Index >= len(next.Snapshot.MyHand) {
			return nil, s, ErrCardOutOfRange
		}
		if next.Local.Selected == in.Index {
			next.Local.Selected = -1
		} else {
			next.Local.Selected = in.Index
		}
		return nil, next, nil

	case WordSubmitted:
		next.Local.Word = ""
		next.Local.Selected = -1
		return nil, next, nil

	case Rerolled:
		next.Local.Selected = -1
		return nil, next, nil

	case OppositionToggled:
		next.Local.Opposing = !next.Local.Opposing
		return nil, next, nil

	case PrefsChanged:
		p := in.Prefs
		if !store.ValidPriority(p.CategoryPriority) {
			p.CategoryPriority = slices.Clone(s.Prefs.CategoryPriority)
		} else {
			p.CategoryPriority = slices.Clone(p.CategoryPriority)
		}
		if !p.FontSize.Valid() {
			p.FontSize = s.Prefs.FontSize
		}
		next.Prefs = p

		effects := []Effect{SavePrefs{Prefs: p}}
		if next.Local.Conn == conn.StateOpen && !slices.Equal(p.CategoryPriority, s.Prefs.CategoryPriority) {
			effects = append(effects, next.syncPriority())
		}
		return effects, next, nil

	case NoticeDismissed:
		next.Local.Notice = ""
		return nil, next, nil

	default:
		return nil, s, ErrUnsupportedInput
	}
}

// syncPriority records the current priority as sent on this connection.
func (s *State) syncPriority() SyncPriority {
	s.Local.synced = slices.Clone(s.Prefs.CategoryPriority)
	return SyncPriority{Priority: slices.Clone(s.Prefs.CategoryPriority)}
}

func applySnapshot(s State, snap types.GameSnapshot) ([]Effect, State, error) {
	var effects []Effect
	prev := s.Snapshot
	s.Snapshot = &snap

	if snap.CurrentWord != s.Local.LastWord {
		s.Local.Opposing = false
		s.Local.LastWord = snap.CurrentWord
	}

	id := s.Identity
	if snap.MyPlayerID != "" {
		id.PlayerID = snap.MyPlayerID
	}
	if snap.RoomCode != "" {
		id.RoomCode = snap.RoomCode
	}
	if id.PlayerID != "" && (prev == nil || id != s.Identity) {
		effects = append(effects, SaveIdentity{Identity: id})
	}
	s.Identity = id

	if prev == nil || !slices.Equal(prev.MyHand, snap.MyHand) {
		s.Local.Selected = -1
	}

	// The server starts every player on the default order. Push the saved
	// one at most once per connection.
	if len(snap.MyPriority) > 0 && !slices.Equal(snap.MyPriority, s.Prefs.CategoryPriority) &&
		!slices.Equal(s.Local.synced, s.Prefs.CategoryPriority) {
		effects = append(effects, s.syncPriority())
	}

	s.Screen = nextScreen(s.Screen, snap)

	if snap.Message != "" && s.Screen != ScreenWaiting {
		effects = append(effects, s.banner(snap.Message, false))
	}
	return effects, s, nil
}

// nextScreen maps status to screen. Finished holds until the user exits or
// the connection reopens.
func nextScreen(cur Screen, snap types.GameSnapshot) Screen {
	if snap.GameOver || cur == ScreenFinished {
		return ScreenFinished
	}
	switch snap.Status {
	case types.StatusWaiting:
		return ScreenWaiting
	case types.StatusPlaying:
		return ScreenPlaying
	case types.StatusFinishingCheck:
		return ScreenFinishingCheck
	case types.StatusFinished:
		return ScreenFinished
	}
	return cur
}

func (s *State) banner(text string, isErr bool) Effect {
	s.Local.bannerSeq++
	s.Local.Banner = &Banner{Text: text, Error: isErr, Gen: s.Local.bannerSeq}
	return ScheduleBannerClear{Gen: s.Local.bannerSeq}
}

// toTitle drops everything tied to the room. The player name is kept so the
// title screen can offer it again.
func (s *State) toTitle(notice string) {
	s.Identity = store.Identity{PlayerName: s.Identity.PlayerName}
	s.Snapshot = nil
	s.Screen = ScreenTitle
	s.Local = Local{
		Selected:  -1,
		Notice:    notice,
		Conn:      conn.StateDisconnected,
		bannerSeq: s.Local.bannerSeq,
	}
}
