package lobby

import (
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-live/apps/server/internal/ledger"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

func newTestLobby(t *testing.T) *Lobby {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	l := New(table.Config{
		Engine: holdem.Config{
			SmallBlind:    holdem.Whole(1),
			BigBlind:      holdem.Whole(2),
			StartingStack: holdem.Whole(100),
		},
		TickInterval: 10 * time.Millisecond,
	}, ledger.NewMemoryService(0), logger)
	t.Cleanup(l.Close)
	return l
}

func TestLobby_CreateGetList(t *testing.T) {
	l := newTestLobby(t)

	a, err := l.Create("alice", "", 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice's Table", a.Name)
	b, err := l.Create("bob", "  High Stakes ", holdem.Whole(5), holdem.Whole(10), nil)
	require.NoError(t, err)
	assert.Equal(t, "High Stakes", b.Name)
	assert.NotEqual(t, a.ID, b.ID)

	got, err := l.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)
	_, err = l.Get("missing")
	assert.ErrorIs(t, err, ErrTableNotFound)

	list := l.List()
	require.Len(t, list, 2)
	assert.Equal(t, "High Stakes", list[0].Name)
	assert.Equal(t, holdem.Whole(10), list[0].BigBlind)
	assert.Equal(t, holdem.Whole(2), list[1].BigBlind)
	assert.Equal(t, "alice", list[1].Creator)
	assert.Equal(t, holdem.StatusWaiting, list[1].Status)
}

func TestLobby_CreateRejectsBadBlinds(t *testing.T) {
	l := newTestLobby(t)
	_, err := l.Create("alice", "x", holdem.Whole(2), holdem.Whole(2), nil)
	assert.Error(t, err)
	assert.Empty(t, l.List())
}

func TestLobby_RemoveIfEmpty(t *testing.T) {
	l := newTestLobby(t)
	tb, err := l.Create("alice", "", 0, 0, nil)
	require.NoError(t, err)
	require.NoError(t, tb.Join("alice"))

	assert.False(t, l.RemoveIfEmpty(tb.ID))
	require.NoError(t, tb.Leave("alice"))
	assert.True(t, l.RemoveIfEmpty(tb.ID))
	assert.True(t, tb.IsClosed())
	_, err = l.Get(tb.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestLobby_ReapIdle(t *testing.T) {
	l := newTestLobby(t)
	idle, err := l.Create("alice", "", 0, 0, nil)
	require.NoError(t, err)
	busy, err := l.Create("bob", "", 0, 0, nil)
	require.NoError(t, err)
	require.NoError(t, busy.Join("bob"))

	assert.Equal(t, 1, l.ReapIdle(0))
	_, err = l.Get(idle.ID)
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = l.Get(busy.ID)
	assert.NoError(t, err)
}

func TestLobby_HooksAttachToNewTables(t *testing.T) {
	l := newTestLobby(t)
	ended := make(chan table.HandEndInfo, 1)
	l.AddHandEndHook(func(info table.HandEndInfo) { ended <- info })

	tb, err := l.Create("alice", "", 0, 0, nil)
	require.NoError(t, err)
	require.NoError(t, tb.Join("alice"))
	require.NoError(t, tb.Join("bob"))
	require.NoError(t, tb.StartHand("alice"))
	require.NoError(t, tb.Act("alice", holdem.Fold()))

	select {
	case info := <-ended:
		assert.Equal(t, tb.ID, info.TableID)
	case <-time.After(time.Second):
		t.Fatal("hook not called")
	}
}
