package holdem

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-live/card"
)

func TestStartHand_HeadsUpBlinds(t *testing.T) {
	tb := newTestTable(t, "p1", "p2")
	_, err := tb.StartHand("p1")
	require.NoError(t, err)

	p1, p2 := tb.Player("p1"), tb.Player("p2")
	assert.Equal(t, StatusPlaying, tb.Status())
	assert.Equal(t, StagePreflopBetting, tb.Stage())
	assert.Equal(t, 1, tb.DealerSeat())
	assert.Equal(t, 1, tb.SmallBlindSeat())
	assert.Equal(t, 2, tb.BigBlindSeat())
	assert.Equal(t, Whole(1), p1.BetInStage())
	assert.Equal(t, Whole(2), p2.BetInStage())
	assert.Equal(t, Whole(999), p1.Stack())
	assert.Equal(t, Whole(998), p2.Stack())
	assert.Equal(t, Whole(2), tb.CurrentBet())
	assert.Equal(t, Whole(3), tb.Pot())
	assert.Equal(t, 1, tb.CurrentTurnSeat(), "dealer acts first heads-up")
	assert.Equal(t, 2, tb.BetToCloseRound())
	assert.Len(t, p1.HoleCards(), 2)
	assert.Len(t, p2.HoleCards(), 2)
	assert.Empty(t, tb.CommunityCards())
}

func TestStartHand_Errors(t *testing.T) {
	tb := newTestTable(t, "a")
	_, err := tb.StartHand("a")
	require.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = tb.Join("b")
	require.NoError(t, err)
	_, err = tb.StartHand("b")
	require.ErrorIs(t, err, ErrNotCreator)

	tb.Player("b").stack = 0
	_, err = tb.StartHand("a")
	require.ErrorIs(t, err, ErrNotEnoughPlayers)

	tb.Player("b").stack = Whole(10)
	_, err = tb.StartHand("a")
	require.NoError(t, err)
	_, err = tb.StartHand("a")
	require.ErrorIs(t, err, ErrWrongStatus)
}

func TestRound_BigBlindOptionClosesPreflopOnce(t *testing.T) {
	tb := startThreeWay(t)
	act(t, tb, "a", Call())
	ev := act(t, tb, "b", Call())
	assert.Empty(t, ev.StreetsDealt)
	assert.Equal(t, "c", turnUser(tb))

	ev = act(t, tb, "c", Check())
	assert.Equal(t, []Stage{StageFlopBetting}, ev.StreetsDealt)
	assert.Equal(t, StageFlopBetting, tb.Stage())
	assert.Len(t, tb.CommunityCards(), 3)
	assert.Equal(t, Chips(0), tb.CurrentBet())
	assert.Equal(t, NoSeat, tb.LastRaiserSeat())
	assert.Equal(t, 0, tb.NumActionsThisRound())
	for _, p := range tb.Players() {
		assert.Equal(t, Chips(0), p.BetInStage())
	}
	assert.Equal(t, "b", turnUser(tb))
	assert.Equal(t, 1, tb.BetToCloseRound())

	// two checks do not close the flop
	ev = act(t, tb, "b", Check())
	assert.Empty(t, ev.StreetsDealt)
	ev = act(t, tb, "c", Check())
	assert.Empty(t, ev.StreetsDealt)
	ev = act(t, tb, "a", Check())
	assert.Equal(t, []Stage{StageTurnBetting}, ev.StreetsDealt)
	assert.Len(t, tb.CommunityCards(), 4)
}

func TestRound_RaiseReopensAction(t *testing.T) {
	tb := startThreeWay(t)
	act(t, tb, "a", Call())
	act(t, tb, "b", Call())
	act(t, tb, "c", Raise(Whole(6)))
	assert.Equal(t, 2, tb.BetToCloseRound())
	assert.Equal(t, "a", turnUser(tb))

	ev := act(t, tb, "a", Call())
	assert.Empty(t, ev.StreetsDealt)
	ev = act(t, tb, "b", Call())
	assert.Equal(t, []Stage{StageFlopBetting}, ev.StreetsDealt)
	assert.Equal(t, Whole(18), tb.Pot())
}

func TestRound_FoldToOneWinsByDefault(t *testing.T) {
	tb := startThreeWay(t)
	total := tb.TotalChips()

	act(t, tb, "a", Fold())
	ev := act(t, tb, "b", Fold())
	require.True(t, ev.HandEnded())

	res := ev.Showdown
	assert.True(t, res.ByDefault)
	assert.Equal(t, []string{"c"}, res.Winners)
	assert.Equal(t, Whole(3), res.Pot)
	assert.Equal(t, Whole(1001), tb.Player("c").Stack())
	assert.Equal(t, StatusFinished, tb.Status())
	assert.Equal(t, StageShowdownComplete, tb.Stage())
	assert.Equal(t, NoSeat, tb.CurrentTurnSeat())
	assert.Equal(t, Chips(0), tb.Pot())
	assert.Equal(t, total, tb.TotalChips())
	for _, p := range tb.Players() {
		assert.Empty(t, p.HoleCards())
		assert.Equal(t, PlayerWaiting, p.Status())
	}
}

func TestStage_AllInRunsOutBoard(t *testing.T) {
	tb := newTestTable(t, "p1", "p2")
	stackDeck(t, tb, "As Ks Ah Kh 2c 3d 7h 9s 4c Jd 5c Qc")
	_, err := tb.StartHand("p1")
	require.NoError(t, err)
	total := tb.TotalChips()

	act(t, tb, "p1", Raise(Whole(1000)))
	ev := act(t, tb, "p2", Call())
	require.True(t, ev.HandEnded())

	assert.Len(t, tb.CommunityCards(), 5)
	// hole cards go p2, p1, p2, p1: p2 holds aces
	assert.Equal(t, "3d 7h 9s Jd Qc", tb.communityCards.String())
	assert.Equal(t, []string{"p2"}, ev.Showdown.Winners)
	assert.Equal(t, Whole(2000), tb.Player("p2").Stack())
	assert.Equal(t, PlayerSittingOut, tb.Player("p1").Status())
	assert.Equal(t, total, tb.TotalChips())

	_, err = tb.StartHand("p1")
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestStage_DealerRotatesAndSkipsBusted(t *testing.T) {
	tb := newTestTable(t, "a", "b", "c")
	for _, want := range []int{1, 2, 3, 1} {
		_, err := tb.StartHand("a")
		require.NoError(t, err)
		assert.Equal(t, want, tb.DealerSeat())
		for tb.Status() == StatusPlaying {
			act(t, tb, turnUser(tb), Fold())
		}
	}

	tb.Player("b").stack = 0
	_, err := tb.StartHand("a")
	require.NoError(t, err)
	assert.Equal(t, 3, tb.DealerSeat(), "seat 2 has no chips")
	assert.Equal(t, PlayerSittingOut, tb.Player("b").Status())
	assert.Empty(t, tb.Player("b").HoleCards())
}

func TestChipConservation_RandomPlay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tb := newTestTable(t, "a", "b", "c", "d", "e")
	total := tb.TotalChips()

	for hand := 0; hand < 200 && tb.CanStartHand(); hand++ {
		_, err := tb.StartNextHand()
		require.NoError(t, err)
		for steps := 0; tb.Status() == StatusPlaying; steps++ {
			require.Less(t, steps, 500, "hand did not terminate")
			user := turnUser(tb)
			require.NotEmpty(t, user)
			acts, owed := tb.LegalActions(user)
			require.NotEmpty(t, acts)
			p := tb.Player(user)

			var a Action
			switch kind := acts[rng.Intn(len(acts))]; kind {
			case ActionBet:
				a = Bet(minChips(tb.cfg.BigBlind*Chips(1+rng.Intn(5)), p.Stack()+p.BetInStage()))
			case ActionRaise:
				to := tb.MinRaiseTo() + Chips(rng.Intn(3))*tb.cfg.BigBlind
				a = Raise(minChips(to, p.Stack()+p.BetInStage()))
			default:
				a = Action{Kind: kind}
			}
			_, err := tb.Act(user, a)
			require.NoError(t, err, "%s %s owed=%s", user, a, owed)
			require.Equal(t, total, tb.TotalChips())
			if tb.Status() == StatusPlaying {
				assert.True(t, tb.Stage().IsBetting())
				assert.Len(t, tb.CommunityCards(), tb.Stage().boardSize())
			}
		}
		require.Equal(t, Chips(0), tb.Pot())
		require.Equal(t, total, tb.TotalChips())
	}
}

// shortDeck makes every following hand deal from seq alone, in order.
func shortDeck(t *testing.T, tb *Table, seq string) {
	t.Helper()
	cards, err := card.ParseList(seq)
	require.NoError(t, err)
	tb.newDeck = func() card.CardList {
		deck := make(card.CardList, 0, len(cards))
		for i := len(cards) - 1; i >= 0; i-- {
			deck = append(deck, cards[i])
		}
		return deck
	}
}

func TestStage_DeckExhaustedOnFlopForcesEnd(t *testing.T) {
	tb := newTestTable(t, "a", "b", "c")
	total := tb.TotalChips()
	// six hole cards and a burn, nothing left for the flop
	shortDeck(t, tb, "Ah Kh Qh Jh Th 9h 8h")
	_, err := tb.StartHand("a")
	require.NoError(t, err)

	act(t, tb, "a", Call())
	act(t, tb, "b", Call())
	ev := act(t, tb, "c", Check())

	require.True(t, ev.HandEnded())
	assert.Equal(t, StatusFinished, tb.Status())
	assert.Equal(t, StageShowdownComplete, tb.Stage())
	assert.Equal(t, StageShowdownComplete, ev.Stage)
	assert.Empty(t, tb.CommunityCards())
	assert.True(t, ev.Showdown.Forced)
	assert.Equal(t, Whole(6), ev.Showdown.Pot)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ev.Showdown.Winners)
	for _, u := range []string{"a", "b", "c"} {
		assert.Equal(t, Whole(1000), tb.Player(u).Stack(), u)
	}
	assert.Equal(t, total, tb.TotalChips())
	assert.Equal(t, NoSeat, tb.CurrentTurnSeat())

	// the table recovers with a full deck
	tb.newDeck = card.NewDeck
	_, err = tb.StartHand("a")
	require.NoError(t, err)
	assert.Equal(t, StagePreflopBetting, tb.Stage())
}

func TestStage_DeckExhaustedWhileDealingHoleCards(t *testing.T) {
	tests := []struct {
		name      string
		deck      string
		winners   []string
		byDefault bool
	}{
		// b and c get two cards each, a only one
		{name: "partial deal", deck: "Ah Kh Qh Jh Th", winners: []string{"b", "c"}},
		// nobody holds two cards: the hand ends with nothing to settle
		{name: "nobody dealt in", deck: "Ah Kh", byDefault: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := newTestTable(t, "a", "b", "c")
			total := tb.TotalChips()
			shortDeck(t, tb, tt.deck)

			ev, err := tb.StartHand("a")
			require.NoError(t, err)
			require.True(t, ev.HandEnded())
			assert.Equal(t, StatusFinished, tb.Status())
			assert.Equal(t, StageShowdownComplete, ev.Stage)
			assert.True(t, ev.Showdown.Forced)
			assert.Equal(t, tt.byDefault, ev.Showdown.ByDefault)
			assert.ElementsMatch(t, tt.winners, ev.Showdown.Winners)
			assert.Equal(t, total, tb.TotalChips())
			assert.Equal(t, NoSeat, tb.SmallBlindSeat(), "blinds are never posted")
		})
	}
}

func TestRound_NoPlayerCanActForcesShowdown(t *testing.T) {
	tb := startThreeWay(t)
	// b and c are still marked playing but have nothing behind, and b has
	// not matched the big blind: the round cannot close and nobody but a
	// can move
	tb.Player("b").stack = 0
	tb.Player("c").stack = 0
	total := tb.TotalChips()

	ev := act(t, tb, "a", Call())

	require.True(t, ev.HandEnded())
	assert.Equal(t, StatusFinished, tb.Status())
	assert.Equal(t, StageShowdownComplete, tb.Stage())
	assert.Len(t, tb.CommunityCards(), 5)
	assert.Len(t, ev.Showdown.Players, 3)
	assert.NotEmpty(t, ev.Showdown.Winners)
	assert.Equal(t, Whole(5), ev.Showdown.Pot)
	assert.Equal(t, total, tb.TotalChips())
}

func TestShowdown_NoEligiblePlayersEndsWithoutDistribution(t *testing.T) {
	tb := showdownTable(t, Whole(40), rankByCard{})
	for _, p := range tb.players {
		p.status = PlayerFolded
	}
	stacks := map[string]Chips{"x": tb.Player("x").Stack(), "y": tb.Player("y").Stack()}

	ev := &HandEvent{}
	tb.resolveShowdown(ev)

	require.True(t, ev.HandEnded())
	assert.True(t, ev.Showdown.Forced)
	assert.True(t, ev.Showdown.ByDefault)
	assert.Empty(t, ev.Showdown.Winners)
	assert.Empty(t, ev.Showdown.Players)
	assert.Equal(t, Whole(40), ev.Showdown.Pot)
	assert.Equal(t, StatusFinished, tb.Status())
	assert.Equal(t, StageShowdownComplete, tb.Stage())
	assert.Equal(t, Chips(0), tb.Pot())
	for u, stack := range stacks {
		assert.Equal(t, stack, tb.Player(u).Stack(), u)
	}
}
