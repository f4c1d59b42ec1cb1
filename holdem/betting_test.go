package holdem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startThreeWay deals a hand with a=dealer(1), b=SB(2), c=BB(3).
func startThreeWay(t *testing.T) *Table {
	t.Helper()
	tb := newTestTable(t, "a", "b", "c")
	_, err := tb.StartHand("a")
	require.NoError(t, err)
	require.Equal(t, 1, tb.DealerSeat())
	require.Equal(t, 2, tb.SmallBlindSeat())
	require.Equal(t, 3, tb.BigBlindSeat())
	require.Equal(t, "a", turnUser(tb))
	return tb
}

func TestAct_OutOfTurnIsRejectedWithoutMutation(t *testing.T) {
	tb := startThreeWay(t)
	before := tb.View("")

	for _, a := range []Action{Fold(), Call(), Raise(Whole(10))} {
		_, err := tb.Act("b", a)
		require.ErrorIs(t, err, ErrNotYourTurn)
	}
	_, err := tb.Act("nobody", Fold())
	require.ErrorIs(t, err, ErrPlayerNotFound)

	assert.Equal(t, before, tb.View(""))
}

func TestAct_ValidationErrors(t *testing.T) {
	tb := startThreeWay(t)
	total := tb.TotalChips()

	cases := []struct {
		action Action
		err    error
	}{
		{Check(), ErrInvalidActionForCurrentBet},
		{Bet(Whole(4)), ErrInvalidActionForCurrentBet},
		{Raise(Whole(2)), ErrBelowMinimumRaise},
		{Raise(Whole(3)), ErrBelowMinimumRaise},
		{Raise(Whole(1000) + 1), ErrAmountExceedsStack},
		{Action{Kind: "shove"}, ErrUnknownActionType},
	}
	for _, tc := range cases {
		_, err := tb.Act("a", tc.action)
		assert.ErrorIs(t, err, tc.err, tc.action.String())
	}
	assert.Equal(t, "a", turnUser(tb))
	assert.Equal(t, Whole(3), tb.Pot())
	assert.Equal(t, total, tb.TotalChips())
}

func TestAct_MinRaiseAndShortAllIn(t *testing.T) {
	tb := startThreeWay(t)
	require.Equal(t, Whole(4), tb.MinRaiseTo())

	act(t, tb, "a", Raise(Whole(4)))
	assert.Equal(t, Whole(4), tb.CurrentBet())
	assert.Equal(t, Whole(2), tb.LastRaiseSize())
	assert.Equal(t, 1, tb.LastRaiserSeat())
	assert.Equal(t, 3, tb.BetToCloseRound())
	assert.Equal(t, Whole(6), tb.MinRaiseTo())

	// b is short: all-in to 5 is below the standard minimum of 6
	b := tb.Player("b")
	b.stack = Whole(4)
	act(t, tb, "b", Raise(Whole(5)))
	assert.Equal(t, PlayerAllIn, b.Status())
	assert.Equal(t, Whole(5), tb.CurrentBet())
	assert.Equal(t, Whole(2), tb.LastRaiseSize(), "short all-in keeps the previous raise size")
	assert.Equal(t, 2, tb.LastRaiserSeat())

	_, err := tb.Act("c", Raise(Whole(6)))
	require.ErrorIs(t, err, ErrBelowMinimumRaise)
	act(t, tb, "c", Raise(Whole(7)))
	assert.Equal(t, Whole(2), tb.LastRaiseSize())
	assert.Equal(t, "a", turnUser(tb))
}

func TestAct_ShortStackCallGoesAllIn(t *testing.T) {
	cfg := testConfig()
	cfg.SmallBlind = Whole(10)
	cfg.BigBlind = Whole(20)
	tb := newTestTableWith(t, cfg, "a", "b", "c")
	tb.Player("a").stack = Whole(5)

	_, err := tb.StartHand("a")
	require.NoError(t, err)
	require.Equal(t, "a", turnUser(tb))
	require.Equal(t, Whole(20), tb.CurrentBet())
	pot := tb.Pot()

	act(t, tb, "a", Call())
	a := tb.Player("a")
	assert.Equal(t, PlayerAllIn, a.Status())
	assert.Equal(t, Chips(0), a.Stack())
	assert.Equal(t, Whole(5), a.BetInStage())
	assert.Equal(t, pot+Whole(5), tb.Pot())
	assert.Equal(t, Whole(20), tb.CurrentBet(), "call never moves the bet")
	assert.Equal(t, 3, tb.LastRaiserSeat())
}

func TestAct_BetRules(t *testing.T) {
	tb := startThreeWay(t)
	act(t, tb, "a", Call())
	act(t, tb, "b", Call())
	ev := act(t, tb, "c", Check())
	require.Equal(t, []Stage{StageFlopBetting}, ev.StreetsDealt)
	require.Equal(t, "b", turnUser(tb))

	_, err := tb.Act("b", Raise(Whole(4)))
	require.ErrorIs(t, err, ErrInvalidActionForCurrentBet)
	_, err = tb.Act("b", Bet(0))
	require.ErrorIs(t, err, ErrBelowMinimumBet)
	_, err = tb.Act("b", Bet(Whole(1)))
	require.ErrorIs(t, err, ErrBelowMinimumBet)

	// all-in for less than the big blind is a legal bet
	b := tb.Player("b")
	b.stack = Whole(1)
	act(t, tb, "b", Bet(Whole(1)))
	assert.Equal(t, PlayerAllIn, b.Status())
	assert.Equal(t, Whole(1), tb.CurrentBet())
	assert.Equal(t, Whole(1), tb.LastRaiseSize())
	assert.Equal(t, "c", turnUser(tb))
	assert.Equal(t, 1, tb.BetToCloseRound())
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Raise ", Whole(6))
	require.NoError(t, err)
	assert.Equal(t, Raise(Whole(6)), a)

	a, err = ParseAction("check", Whole(6))
	require.NoError(t, err)
	assert.Equal(t, Check(), a, "amount is dropped for passive actions")

	_, err = ParseAction("bet", 0)
	assert.ErrorIs(t, err, ErrBelowMinimumBet)
	_, err = ParseAction("allin", 0)
	assert.ErrorIs(t, err, ErrUnknownActionType)
}

func TestLegalActions(t *testing.T) {
	tb := startThreeWay(t)
	acts, owed := tb.LegalActions("a")
	assert.Equal(t, []ActionKind{ActionFold, ActionCall, ActionRaise}, acts)
	assert.Equal(t, Whole(2), owed)

	acts, _ = tb.LegalActions("b")
	assert.Empty(t, acts)
}
