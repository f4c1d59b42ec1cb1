package holdem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sparseTable seats players at 2, 5 and 8 of 9.
func sparseTable(t *testing.T) *Table {
	tb, err := NewTable("t1", "sparse", "a", Config{
		SmallBlind: 100, BigBlind: 200, StartingStack: Whole(10), Logger: quietLogger(),
	})
	require.NoError(t, err)
	for _, seat := range []int{2, 5, 8} {
		tb.players = append(tb.players, &Player{
			Username: string(rune('a' + seat)),
			Seat:     seat,
			stack:    Whole(10),
			status:   PlayerPlaying,
		})
	}
	return tb
}

func TestNextActor_WrapsOverSparseSeats(t *testing.T) {
	tb := sparseTable(t)

	assert.Equal(t, 5, NextActor(tb, 2, false))
	assert.Equal(t, 8, NextActor(tb, 5, false))
	assert.Equal(t, 2, NextActor(tb, 8, false))
	assert.Equal(t, 2, NextActor(tb, 9, false))
	assert.Equal(t, 2, NextActor(tb, NoSeat, false))
}

func TestNextActor_SkipsIneligible(t *testing.T) {
	tb := sparseTable(t)
	tb.PlayerAt(5).status = PlayerFolded
	assert.Equal(t, 8, NextActor(tb, 2, false))

	tb.PlayerAt(8).status = PlayerAllIn
	tb.PlayerAt(8).stack = 0
	assert.Equal(t, 8, NextActor(tb, 2, false), "all-in is still in hand")
	assert.Equal(t, 2, NextActor(tb, 2, true), "only seat 2 can act, full cycle returns it")

	tb.PlayerAt(2).status = PlayerSittingOut
	assert.Equal(t, NoSeat, NextActor(tb, 2, true))
}

func TestPreviousActiveSeat(t *testing.T) {
	tb := sparseTable(t)
	assert.Equal(t, 2, PreviousActiveSeat(tb, 5))
	assert.Equal(t, 8, PreviousActiveSeat(tb, 2))

	tb.PlayerAt(8).status = PlayerFolded
	assert.Equal(t, 5, PreviousActiveSeat(tb, 2))

	tb.PlayerAt(5).status = PlayerAllIn
	assert.Equal(t, 2, PreviousActiveSeat(tb, 2), "nobody else can act")
}

func TestFirstToActPostFlop(t *testing.T) {
	tb := sparseTable(t)
	tb.dealerSeat = 8
	assert.Equal(t, 2, FirstToActPostFlop(tb))

	tb.PlayerAt(2).status = PlayerAllIn
	assert.Equal(t, 5, FirstToActPostFlop(tb))
}
