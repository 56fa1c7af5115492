// Package session runs the client's single event loop. User intents, server
// messages and timers all arrive as messages and are applied in order.
package session

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/internal/conn"
	"github.com/DoyleJ11/wordchain-client/internal/dispatch"
	"github.com/DoyleJ11/wordchain-client/internal/engine"
	"github.com/DoyleJ11/wordchain-client/internal/logging"
	"github.com/DoyleJ11/wordchain-client/internal/store"
	internaltypes "github.com/DoyleJ11/wordchain-client/internal/types"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

var ErrNothingToResume = errors.New("no saved session to resume")
var ErrRoomCreate = errors.New("could not create a room")

type Msg interface{ isSessionMsg() }

type Join struct {
	RoomCode   string
	PlayerName string
}

// CreateRoom asks the server for a new room and joins it. Solo also starts
// the game shortly after the connection opens.
type CreateRoom struct {
	PlayerName string
	Settings   map[string]any
	Solo       bool
}

type Resume struct{}
type StartGame struct{}
type SetWord struct{ Word string }
type SelectCard struct{ Index int }
type Submit struct{}
type Reroll struct{}
type ToggleOppose struct{}
type Approve struct{}
type SetPriority struct{ Priority []types.Category }
type SetAutoSelect struct{ Enabled bool }

// SetDisplay leaves a field alone when it is empty or nil.
type SetDisplay struct {
	FontSize store.FontSize
	Compact  *bool
}

type RequestHand struct{ TargetID string }
type CloseHandViewer struct{}
type DismissNotice struct{}
type Exit struct{}
type Shutdown struct{}

// GetState is for tests.
type GetState struct {
	Reply chan engine.State
}

type roomCreated struct {
	Code       string
	PlayerName string
	Solo       bool
	Err        error
}

type bannerExpired struct{ Gen uint64 }
type soloStart struct{ Seq uint64 }

func (Join) isSessionMsg()            {}
func (CreateRoom) isSessionMsg()      {}
func (Resume) isSessionMsg()          {}
func (StartGame) isSessionMsg()       {}
func (SetWord) isSessionMsg()         {}
func (SelectCard) isSessionMsg()      {}
func (Submit) isSessionMsg()          {}
func (Reroll) isSessionMsg()          {}
func (ToggleOppose) isSessionMsg()    {}
func (Approve) isSessionMsg()         {}
func (SetPriority) isSessionMsg()     {}
func (SetAutoSelect) isSessionMsg()   {}
func (SetDisplay) isSessionMsg()      {}
func (RequestHand) isSessionMsg()     {}
func (CloseHandViewer) isSessionMsg() {}
func (DismissNotice) isSessionMsg()   {}
func (Exit) isSessionMsg()            {}
func (Shutdown) isSessionMsg()        {}
func (GetState) isSessionMsg()        {}
func (roomCreated) isSessionMsg()     {}
func (bannerExpired) isSessionMsg()   {}
func (soloStart) isSessionMsg()       {}

// Connector is the transport the session drives. *conn.Manager implements it.
type Connector interface {
	Events() <-chan conn.Event
	IsCurrent(gen uint64) bool
	Connect(t conn.Target) error
	SetPlayerID(id string)
	Send(ctx context.Context, data []byte) error
	Close()
}

type RoomCreator interface {
	CreateRoom(ctx context.Context, settings map[string]any) (string, error)
}

// Publisher receives every new ViewModel.
type Publisher interface {
	Publish(vm engine.ViewModel)
}

type Options struct {
	BannerTTL      time.Duration
	SoloStartDelay time.Duration
	SoloName       string
	AutoResume     bool
	Layout         engine.HandLayout
}

func DefaultOptions() Options {
	return Options{
		BannerTTL:      3 * time.Second,
		SoloStartDelay: 500 * time.Millisecond,
		SoloName:       "Player",
		AutoResume:     true,
		Layout:         engine.RowLayout{Threshold: 8},
	}
}

type Deps struct {
	Conn      Connector
	Rooms     RoomCreator
	Store     *store.Store
	Publisher Publisher
	Clock     conn.Clock
	Log       *zap.Logger
}

type Session struct {
	inbox chan Msg
	state engine.State
	opts  Options

	conn  Connector
	rooms RoomCreator
	disp  *dispatch.Dispatcher
	store *store.Store
	pub   Publisher
	clock conn.Clock
	log   *zap.Logger

	bannerTimer conn.Timer
	soloTimer   conn.Timer
	soloPending bool
	soloSeq     uint64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, d Deps, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)
	if d.Clock == nil {
		d.Clock = conn.RealClock
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if opts.Layout == nil {
		opts.Layout = engine.RowLayout{Threshold: 8}
	}

	s := &Session{
		inbox: make(chan Msg, 64),
		state: engine.NewState(d.Store.LoadIdentity(), d.Store.LoadPreferences()),
		opts:  opts,
		conn:  d.Conn,
		rooms: d.Rooms,
		disp:  dispatch.New(d.Conn),
		store: d.Store,
		pub:   d.Publisher,
		clock: d.Clock,
		log:   d.Log,

		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) loop() {
	defer close(s.done)

	if s.opts.AutoResume && s.state.Identity.Complete() {
		s.log.Info("resuming saved session",
			zap.String("room", s.state.Identity.RoomCode),
			logging.Player(s.state.Identity.PlayerID))
		s.handle(Resume{})
	}
	s.publish()

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case ev := <-s.conn.Events():
			if !s.conn.IsCurrent(ev.Gen) {
				continue
			}
			s.handleEvent(ev)
			s.publish()

		case m := <-s.inbox:
			switch msg := m.(type) {
			case GetState:
				msg.Reply <- s.state
			case Shutdown:
				s.shutdown()
				return
			default:
				s.handle(m)
				s.publish()
			}
		}
	}
}

func (s *Session) handleEvent(ev conn.Event) {
	switch ev.Kind {
	case conn.EventConnecting:
		s.apply(engine.ConnConnecting{})

	case conn.EventOpened:
		s.apply(engine.ConnOpened{})
		if s.soloPending {
			if s.soloTimer != nil {
				s.soloTimer.Stop()
			}
			seq := s.soloSeq
			s.soloTimer = s.clock.AfterFunc(s.opts.SoloStartDelay, func() { s.post(soloStart{Seq: seq}) })
		}

	case conn.EventClosed:
		s.apply(engine.ConnClosed{Code: ev.Code, Fatal: ev.Fatal})
		if ev.Fatal {
			s.stopSolo()
		}

	case conn.EventMessage:
		msg, err := internaltypes.Decode(ev.Data)
		if err != nil {
			s.log.Warn("dropping malformed message", zap.Error(err))
			return
		}
		s.log.Debug("message", zap.String("type", string(msg.Type)))

		switch msg.Type {
		case types.MsgGameState:
			s.apply(engine.Snapshot{Snap: *msg.Snapshot})
		case types.MsgError:
			s.apply(engine.ServerError{Message: msg.Message})
		case types.MsgReturnToTitle:
			s.stopSolo()
			s.apply(engine.ReturnToTitle{Message: msg.Message})
		case types.MsgViewHand:
			s.apply(engine.HandViewed{View: *msg.ViewHand})
		default:
			s.log.Warn("ignoring unrecognized message type", zap.String("type", string(msg.Type)))
		}
	}
}

func (s *Session) handle(m Msg) {
	switch msg := m.(type) {
	case Join:
		s.stopSolo()
		s.apply(engine.Joined{RoomCode: msg.RoomCode, PlayerName: msg.PlayerName})

	case CreateRoom:
		name := msg.PlayerName
		if name == "" && msg.Solo {
			name = s.opts.SoloName
		}
		if name == "" {
			s.reject(engine.ErrNameRequired)
			return
		}
		go func() {
			code, err := s.rooms.CreateRoom(s.ctx, msg.Settings)
			s.post(roomCreated{Code: code, PlayerName: name, Solo: msg.Solo, Err: err})
		}()

	case roomCreated:
		if msg.Err != nil {
			s.log.Warn("create room", zap.Error(msg.Err))
			s.reject(ErrRoomCreate)
			return
		}
		s.stopSolo()
		s.log.Info("room created", zap.String("room", msg.Code), zap.Bool("solo", msg.Solo))
		if s.apply(engine.Joined{RoomCode: msg.Code, PlayerName: msg.PlayerName}) && msg.Solo {
			s.soloPending = true
		}

	case Resume:
		id := s.state.Identity
		if !id.Complete() {
			s.reject(ErrNothingToResume)
			return
		}
		s.apply(engine.Joined{RoomCode: id.RoomCode, PlayerName: id.PlayerName, PlayerID: id.PlayerID})

	case StartGame:
		s.send(s.disp.StartGame(s.ctx))

	case SetWord:
		s.apply(engine.WordChanged{Word: msg.Word})

	case SelectCard:
		s.apply(engine.CardSelected{Index: msg.Index})

	case Submit:
		l := s.state.Local
		if err := s.disp.PlayWord(s.ctx, l.Word, l.Selected, s.state.Prefs.AutoSelect); err != nil {
			s.reject(err)
			return
		}
		s.apply(engine.WordSubmitted{})

	case Reroll:
		if err := s.disp.Reroll(s.ctx, s.state.Local.Selected); err != nil {
			s.reject(err)
			return
		}
		s.apply(engine.Rerolled{})

	case ToggleOppose:
		s.apply(engine.OppositionToggled{})
		if !s.state.Local.Opposing {
			return
		}
		if err := s.disp.Oppose(s.ctx); err != nil {
			s.apply(engine.OppositionToggled{})
			s.reject(err)
		}

	case Approve:
		if !engine.CanVote(s.state) {
			s.reject(engine.ErrNoVote)
			return
		}
		s.send(s.disp.Approve(s.ctx))

	case SetPriority:
		p := s.prefs()
		p.CategoryPriority = slices.Clone(msg.Priority)
		s.apply(engine.PrefsChanged{Prefs: p})

	case SetAutoSelect:
		p := s.prefs()
		p.AutoSelect = msg.Enabled
		s.apply(engine.PrefsChanged{Prefs: p})

	case SetDisplay:
		p := s.prefs()
		if msg.FontSize != "" {
			p.FontSize = msg.FontSize
		}
		if msg.Compact != nil {
			p.CompactLayout = *msg.Compact
		}
		s.apply(engine.PrefsChanged{Prefs: p})

	case RequestHand:
		s.send(s.disp.RequestHand(s.ctx, msg.TargetID))

	case CloseHandViewer:
		s.apply(engine.HandViewerClosed{})

	case DismissNotice:
		s.apply(engine.NoticeDismissed{})

	case Exit:
		s.stopSolo()
		s.apply(engine.Exited{})

	case bannerExpired:
		s.apply(engine.BannerExpired{Gen: msg.Gen})

	case soloStart:
		if !s.soloPending || msg.Seq != s.soloSeq {
			return
		}
		s.soloPending = false
		s.soloTimer = nil
		s.send(s.disp.StartGame(s.ctx))
	}
}

// apply runs one reducer step and its effects. A rejected input becomes an
// error banner.
func (s *Session) apply(in engine.Input) bool {
	effects, next, err := engine.Apply(s.state, in)
	if err != nil {
		if errors.Is(err, engine.ErrUnsupportedInput) {
			s.log.Error("reducer rejected input", zap.Error(err))
			return false
		}
		s.reject(err)
		return false
	}
	s.state = next
	for _, e := range effects {
		s.run(e)
	}
	return true
}

func (s *Session) reject(err error) {
	s.apply(engine.LocalRejected{Err: err})
}

func (s *Session) send(err error) {
	if err != nil {
		s.log.Debug("send rejected", zap.Error(err))
		s.reject(err)
	}
}

func (s *Session) run(e engine.Effect) {
	switch e := e.(type) {
	case engine.SaveIdentity:
		s.store.SaveIdentity(e.Identity)
		s.conn.SetPlayerID(e.Identity.PlayerID)

	case engine.ClearIdentity:
		s.store.ClearIdentity()

	case engine.SavePrefs:
		s.store.SavePreferences(e.Prefs)

	case engine.SyncPriority:
		if err := s.disp.SetPriority(s.ctx, e.Priority); err != nil {
			s.log.Warn("sync priority", zap.Error(err))
		}

	case engine.Connect:
		s.log.Info("connecting",
			zap.String("room", e.Target.RoomCode),
			logging.Player(e.Target.PlayerID))
		if err := s.conn.Connect(e.Target); err != nil {
			s.reject(err)
		}

	case engine.CloseConnection:
		s.conn.Close()

	case engine.ScheduleBannerClear:
		s.stopBanner()
		gen := e.Gen
		s.bannerTimer = s.clock.AfterFunc(s.opts.BannerTTL, func() { s.post(bannerExpired{Gen: gen}) })

	case engine.CancelBannerClear:
		s.stopBanner()
	}
}

func (s *Session) prefs() store.Preferences {
	p := s.state.Prefs
	p.CategoryPriority = slices.Clone(p.CategoryPriority)
	return p
}

func (s *Session) stopBanner() {
	if s.bannerTimer != nil {
		s.bannerTimer.Stop()
		s.bannerTimer = nil
	}
}

// stopSolo cancels a pending automatic start.
func (s *Session) stopSolo() {
	s.soloSeq++
	s.soloPending = false
	if s.soloTimer != nil {
		s.soloTimer.Stop()
		s.soloTimer = nil
	}
}

func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Session) publish() {
	if s.pub == nil {
		return
	}
	s.pub.Publish(engine.View(s.state, s.opts.Layout))
}

func (s *Session) shutdown() {
	s.stopBanner()
	s.stopSolo()
	s.conn.Close()
	s.cancel()
}
