package conn

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/internal/logging"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

var (
	ErrNotOpen  = errors.New("connection not open")
	ErrNoTarget = errors.New("room code and player name required")
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateReconnectScheduled
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnectScheduled:
		return "reconnect-scheduled"
	default:
		return "disconnected"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type EventKind int

const (
	EventConnecting EventKind = iota
	EventOpened
	EventMessage
	EventClosed
)

// Event is what the manager surfaces to its owner. Gen identifies the
// transport attempt that produced it; see Manager.IsCurrent.
type Event struct {
	Kind  EventKind
	Data  []byte
	Code  int
	Fatal bool
	Gen   uint64
}

type Options struct {
	ServerURL      string
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	WriteTimeout   time.Duration
}

func DefaultOptions() Options {
	return Options{
		ServerURL:      "http://localhost:8000",
		ReconnectDelay: 3 * time.Second,
		DialTimeout:    5 * time.Second,
		WriteTimeout:   3 * time.Second,
	}
}

// Manager keeps at most one live transport. A non-fatal closure schedules a
// single reconnect; closure with types.CloseRoomNotFound never does.
type Manager struct {
	opts   Options
	dialer Dialer
	clock  Clock
	log    *zap.Logger
	ctx    context.Context
	events chan Event

	mu     sync.Mutex
	state  State
	target Target
	gen    uint64
	stream Stream
	cancel context.CancelFunc
	timer  Timer
}

func NewManager(ctx context.Context, opts Options, dialer Dialer, clock Clock, log *zap.Logger) *Manager {
	if clock == nil {
		clock = RealClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		opts:   opts,
		dialer: dialer,
		clock:  clock,
		log:    log,
		ctx:    ctx,
		events: make(chan Event, 64),
	}
}

func (m *Manager) Events() <-chan Event { return m.events }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsCurrent reports whether gen belongs to the latest transport attempt.
func (m *Manager) IsCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.gen
}

// Connect tears down any existing transport or pending reconnect and dials t.
func (m *Manager) Connect(t Target) error {
	if t.RoomCode == "" || t.PlayerName == "" {
		return ErrNoTarget
	}

	m.mu.Lock()
	m.teardownLocked()
	m.target = t
	ctx, gen := m.beginLocked()
	m.mu.Unlock()

	go m.run(ctx, gen, t)
	return nil
}

// SetPlayerID updates the id attached on the next (re)connect.
func (m *Manager) SetPlayerID(id string) {
	m.mu.Lock()
	m.target.PlayerID = id
	m.mu.Unlock()
}

// Send writes one frame. It fails with ErrNotOpen rather than queueing.
func (m *Manager) Send(ctx context.Context, data []byte) error {
	m.mu.Lock()
	s := m.stream
	open := m.state == StateOpen
	m.mu.Unlock()
	if !open || s == nil {
		return ErrNotOpen
	}

	wctx, cancel := context.WithTimeout(ctx, m.opts.WriteTimeout)
	defer cancel()
	return s.Write(wctx, data)
}

// Close drops the transport and any pending reconnect without retrying.
func (m *Manager) Close() {
	m.mu.Lock()
	m.teardownLocked()
	m.gen++
	m.state = StateDisconnected
	m.target = Target{}
	m.mu.Unlock()
}

func (m *Manager) teardownLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if s := m.stream; s != nil {
		m.stream = nil
		go s.Close(1000, "")
	}
}

func (m *Manager) beginLocked() (context.Context, uint64) {
	m.gen++
	m.state = StateConnecting
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	return ctx, m.gen
}

func (m *Manager) run(ctx context.Context, gen uint64, t Target) {
	log := m.log.With(
		zap.String("conn_id", uuid.NewString()),
		zap.String("room", t.RoomCode),
		logging.Player(t.PlayerID),
	)
	m.emit(Event{Kind: EventConnecting, Gen: gen})

	rawURL, err := t.URL(m.opts.ServerURL)
	if err != nil {
		log.Warn("build url", zap.Error(err))
		m.closed(gen, CloseAbnormal)
		return
	}

	dctx, cancel := context.WithTimeout(ctx, m.opts.DialTimeout)
	s, err := m.dialer.Dial(dctx, rawURL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("dial failed", zap.Error(err))
		m.closed(gen, CloseCode(err))
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		_ = s.Close(1000, "")
		return
	}
	m.stream = s
	m.state = StateOpen
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	log.Info("connection open")
	m.emit(Event{Kind: EventOpened, Gen: gen})

	for {
		data, err := s.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			code := CloseCode(err)
			log.Info("connection closed", zap.Int("code", code), zap.Error(err))
			m.closed(gen, code)
			return
		}
		m.emit(Event{Kind: EventMessage, Data: data, Gen: gen})
	}
}

func (m *Manager) closed(gen uint64, code int) {
	fatal := code == types.CloseRoomNotFound

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.stream = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if fatal {
		m.state = StateDisconnected
	} else {
		m.scheduleLocked()
	}
	m.mu.Unlock()

	m.emit(Event{Kind: EventClosed, Code: code, Fatal: fatal, Gen: gen})
}

// scheduleLocked arms the reconnect timer unless one is already pending.
func (m *Manager) scheduleLocked() {
	m.state = StateReconnectScheduled
	if m.timer != nil {
		return
	}
	gen := m.gen
	m.timer = m.clock.AfterFunc(m.opts.ReconnectDelay, func() { m.reconnect(gen) })
}

func (m *Manager) reconnect(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state != StateReconnectScheduled {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	t := m.target
	ctx, next := m.beginLocked()
	m.mu.Unlock()

	m.log.Info("reconnecting", zap.String("room", t.RoomCode))
	go m.run(ctx, next, t)
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.ctx.Done():
	}
}
