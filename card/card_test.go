package card

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_RoundTripsTwoCharForm(t *testing.T) {
	for _, s := range []string{"As", "Td", "2c", "Kh", "9s"} {
		c, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, s, c.String())
	}

	c, err := Parse("10h")
	require.NoError(t, err)
	require.Equal(t, "Th", c.String())
}

func TestParse_RejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "A", "1s", "Ax", "AAs"} {
		_, err := Parse(s)
		require.Error(t, err, "input %q", s)
	}
}

func TestNewDeck_Has52UniqueCards(t *testing.T) {
	deck := NewDeck()
	require.Equal(t, 52, deck.Count())
	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		require.True(t, c.Valid(), "card %v", c)
		require.False(t, seen[c], "duplicate %v", c)
		seen[c] = true
	}
}

func TestShuffle_KeepsCardsAndPopsFromEnd(t *testing.T) {
	deck := NewDeck()
	deck.Shuffle(rand.New(rand.NewSource(7)))
	require.Equal(t, 52, deck.Count())

	last := deck[51]
	c, ok := deck.PopCard()
	require.True(t, ok)
	require.Equal(t, last, c)
	require.Equal(t, 51, deck.Count())
	require.False(t, deck.Contains(c))

	cards, ok := deck.PopCards(51)
	require.True(t, ok)
	require.Len(t, cards, 51)
	_, ok = deck.PopCard()
	require.False(t, ok)
}

func TestCard_JSON(t *testing.T) {
	raw, err := json.Marshal(CardList{MustParse("As"), MustParse("Td")})
	require.NoError(t, err)
	require.JSONEq(t, `["As","Td"]`, string(raw))

	var back CardList
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, "As Td", back.String())
}
