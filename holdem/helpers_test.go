package holdem

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"holdem-live/card"
	"holdem-live/handrank"
)

func testConfig() Config {
	logger, _ := logtest.NewNullLogger()
	return Config{
		SmallBlind:    Whole(1),
		BigBlind:      Whole(2),
		StartingStack: Whole(1000),
		Seed:          7,
		Logger:        logger,
	}
}

// newTestTable seats users in order; the first one is the creator.
func newTestTable(t *testing.T, users ...string) *Table {
	t.Helper()
	return newTestTableWith(t, testConfig(), users...)
}

func newTestTableWith(t *testing.T, cfg Config, users ...string) *Table {
	t.Helper()
	tb, err := NewTable("t1", "test table", users[0], cfg)
	require.NoError(t, err)
	for i, u := range users {
		seat, err := tb.Join(u)
		require.NoError(t, err)
		require.Equal(t, i+1, seat)
	}
	return tb
}

// stackDeck makes the next hand deal seq in order: hole cards (two rounds
// starting left of the dealer), then burn+flop, burn+turn, burn+river.
func stackDeck(t *testing.T, tb *Table, seq string) {
	t.Helper()
	cards, err := card.ParseList(seq)
	require.NoError(t, err)
	var deck card.CardList
	for _, c := range card.NewDeck() {
		if !cards.Contains(c) {
			deck = append(deck, c)
		}
	}
	for i := len(cards) - 1; i >= 0; i-- {
		deck = append(deck, cards[i])
	}
	tb.newDeck = func() card.CardList {
		return append(card.CardList(nil), deck...)
	}
}

func act(t *testing.T, tb *Table, user string, a Action) *HandEvent {
	t.Helper()
	ev, err := tb.Act(user, a)
	require.NoError(t, err, "%s %s", user, a)
	return ev
}

func turnUser(tb *Table) string {
	if p := tb.CurrentTurnPlayer(); p != nil {
		return p.Username
	}
	return ""
}

// rankByCard ranks a hand by the first hole card only.
type rankByCard map[string]int32

func (r rankByCard) Evaluate(hole, board []card.Card) (handrank.Result, error) {
	if len(hole) != 2 || len(board) != 5 {
		return handrank.Result{}, handrank.ErrCardCount
	}
	rank, ok := r[hole[0].String()]
	if !ok {
		return handrank.Result{}, handrank.ErrDuplicateCard
	}
	return handrank.Result{Rank: rank, Name: hole[0].String()}, nil
}

func quietLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}
