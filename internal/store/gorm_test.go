package store

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Runs against a real database only when WORDCHAIN_TEST_DSN is set.
func TestGormKV_Postgres(t *testing.T) {
	dsn := os.Getenv("WORDCHAIN_TEST_DSN")
	if dsn == "" {
		t.Skip("WORDCHAIN_TEST_DSN not set")
	}

	ns := "test-" + uuid.NewString()[:8]
	kv, err := OpenPostgres(dsn, ns)
	require.NoError(t, err)
	defer kv.Close()

	_, ok, err := kv.Get(KeyRoomCode)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(KeyRoomCode, "ABCD"))
	require.NoError(t, kv.Set(KeyRoomCode, "WXYZ"))
	v, ok, err := kv.Get(KeyRoomCode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "WXYZ", v)

	s := New(kv, zap.NewNop())
	s.SaveIdentity(Identity{PlayerID: "p", RoomCode: "ABCD", PlayerName: "n"})
	s.ClearIdentity()
	assert.Equal(t, Identity{}, s.LoadIdentity())

	require.NoError(t, kv.Remove(KeyAutoSelect))
}
