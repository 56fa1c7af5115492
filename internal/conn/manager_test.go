package conn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, *fakeDialer, *fakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	d := &fakeDialer{}
	c := &fakeClock{}
	opts := DefaultOptions()
	opts.ServerURL = "http://example.test"
	return NewManager(ctx, opts, d, c, zap.NewNop()), d, c
}

// waitEvent skips events of other kinds until one of kind arrives.
func waitEvent(t *testing.T, m *Manager, kind EventKind) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
			return Event{}
		}
	}
}

func noEvent(t *testing.T, m *Manager, kind EventKind, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == kind {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-deadline:
			return
		}
	}
}

func TestManager_ConnectOpensAndDeliversMessages(t *testing.T) {
	m, d, _ := newTestManager(t)

	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "taro san", PlayerID: "p1"}))
	opened := waitEvent(t, m, EventOpened)
	assert.True(t, m.IsCurrent(opened.Gen))
	assert.Equal(t, StateOpen, m.State())
	assert.Equal(t, "ws://example.test/ws/ABCD/taro%20san?player_id=p1", d.lastURL())

	d.stream(0).reads <- readResult{data: []byte(`{"type":"error","message":"nope"}`)}
	msg := waitEvent(t, m, EventMessage)
	assert.JSONEq(t, `{"type":"error","message":"nope"}`, string(msg.Data))

	require.NoError(t, m.Send(context.Background(), []byte(`{"action":"oppose"}`)))
	assert.Equal(t, [][]byte{[]byte(`{"action":"oppose"}`)}, d.stream(0).written())
}

func TestManager_ConnectRequiresTarget(t *testing.T) {
	m, d, _ := newTestManager(t)

	for _, tgt := range []Target{{}, {RoomCode: "ABCD"}, {PlayerName: "hanako"}} {
		assert.ErrorIs(t, m.Connect(tgt), ErrNoTarget)
	}
	assert.Zero(t, d.dials())
}

func TestManager_SendWhenNotOpenIsRejected(t *testing.T) {
	m, d, _ := newTestManager(t)

	err := m.Send(context.Background(), []byte(`{"action":"approve"}`))
	require.ErrorIs(t, err, ErrNotOpen)

	d.fail = []error{errors.New("refused")}
	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
	waitEvent(t, m, EventClosed)
	assert.ErrorIs(t, m.Send(context.Background(), []byte(`{}`)), ErrNotOpen)
}

func TestManager_ClosureHandling(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		wantFatal   bool
		wantState   State
		wantPending int
	}{
		{"room not found is fatal", types.CloseRoomNotFound, true, StateDisconnected, 0},
		{"abnormal closure retries", 1006, false, StateReconnectScheduled, 1},
		{"going away retries", 1001, false, StateReconnectScheduled, 1},
		{"normal closure retries", 1000, false, StateReconnectScheduled, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, d, clock := newTestManager(t)
			require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
			waitEvent(t, m, EventOpened)

			d.stream(0).reads <- readResult{err: &CloseError{Code: tt.code}}
			ev := waitEvent(t, m, EventClosed)

			assert.Equal(t, tt.code, ev.Code)
			assert.Equal(t, tt.wantFatal, ev.Fatal)
			assert.Equal(t, tt.wantState, m.State())
			assert.Equal(t, tt.wantPending, clock.pending())

			clock.fire()
			if tt.wantFatal {
				noEvent(t, m, EventConnecting, 50*time.Millisecond)
				assert.Equal(t, 1, d.dials())
				return
			}
			waitEvent(t, m, EventOpened)
			assert.Equal(t, 2, d.dials())
		})
	}
}

func TestManager_ReconnectAttachesLatestPlayerID(t *testing.T) {
	m, d, clock := newTestManager(t)
	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
	waitEvent(t, m, EventOpened)
	assert.Equal(t, "ws://example.test/ws/ABCD/hanako", d.lastURL())

	m.SetPlayerID("p-42")
	d.stream(0).reads <- readResult{err: &CloseError{Code: 1006}}
	waitEvent(t, m, EventClosed)
	clock.fire()
	waitEvent(t, m, EventOpened)

	assert.Equal(t, "ws://example.test/ws/ABCD/hanako?player_id=p-42", d.lastURL())
}

func TestManager_DialFailureRetriesWithSingleTimer(t *testing.T) {
	m, d, clock := newTestManager(t)
	d.fail = []error{errors.New("refused"), errors.New("refused")}

	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
	ev := waitEvent(t, m, EventClosed)
	assert.False(t, ev.Fatal)
	assert.Equal(t, CloseAbnormal, ev.Code)
	assert.Equal(t, 1, clock.pending())

	clock.fire()
	waitEvent(t, m, EventClosed)
	assert.Equal(t, 1, clock.pending())

	clock.fire()
	waitEvent(t, m, EventOpened)
	assert.Equal(t, 0, clock.pending())
	assert.Equal(t, 3, d.dials())
}

func TestManager_NewConnectionCancelsPendingReconnect(t *testing.T) {
	m, d, clock := newTestManager(t)
	tgt := Target{RoomCode: "ABCD", PlayerName: "hanako", PlayerID: "p1"}
	require.NoError(t, m.Connect(tgt))
	waitEvent(t, m, EventOpened)

	d.stream(0).reads <- readResult{err: &CloseError{Code: 1006}}
	waitEvent(t, m, EventClosed)
	require.Equal(t, 1, clock.pending())

	require.NoError(t, m.Connect(tgt))
	waitEvent(t, m, EventOpened)
	assert.Equal(t, 0, clock.pending())

	clock.fire()
	noEvent(t, m, EventConnecting, 50*time.Millisecond)
	assert.Equal(t, 2, d.dials())
	assert.Equal(t, StateOpen, m.State())
}

func TestManager_ConnectTwiceTearsDownPrevious(t *testing.T) {
	m, d, _ := newTestManager(t)
	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
	first := waitEvent(t, m, EventOpened)

	require.NoError(t, m.Connect(Target{RoomCode: "WXYZ", PlayerName: "hanako"}))
	second := waitEvent(t, m, EventOpened)

	assert.False(t, m.IsCurrent(first.Gen))
	assert.True(t, m.IsCurrent(second.Gen))
	require.Eventually(t, d.stream(0).isClosed, time.Second, 5*time.Millisecond)
	assert.False(t, d.stream(1).isClosed())

	require.NoError(t, m.Send(context.Background(), []byte(`{"action":"start_game"}`)))
	assert.Empty(t, d.stream(0).written())
	assert.Len(t, d.stream(1).written(), 1)
}

func TestManager_CloseCancelsReconnect(t *testing.T) {
	m, d, clock := newTestManager(t)
	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
	waitEvent(t, m, EventOpened)
	d.stream(0).reads <- readResult{err: &CloseError{Code: 1006}}
	waitEvent(t, m, EventClosed)

	m.Close()
	assert.Equal(t, StateDisconnected, m.State())
	assert.Equal(t, 0, clock.pending())

	clock.fire()
	noEvent(t, m, EventConnecting, 50*time.Millisecond)
	assert.Equal(t, 1, d.dials())
}

func TestManager_CloseStopsOpenStream(t *testing.T) {
	m, d, _ := newTestManager(t)
	require.NoError(t, m.Connect(Target{RoomCode: "ABCD", PlayerName: "hanako"}))
	waitEvent(t, m, EventOpened)

	m.Close()
	require.Eventually(t, d.stream(0).isClosed, time.Second, 5*time.Millisecond)
	noEvent(t, m, EventClosed, 50*time.Millisecond)
	assert.ErrorIs(t, m.Send(context.Background(), []byte(`{}`)), ErrNotOpen)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "reconnect-scheduled", StateReconnectScheduled.String())
}
