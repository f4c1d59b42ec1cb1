package card

import (
	"math/rand"
	"strings"
)

type CardList []Card

// NewDeck returns the 52 cards in canonical order (suit by suit, 2..A).
func NewDeck() CardList {
	deck := make(CardList, 0, 52)
	for s := Spade; s <= Club; s++ {
		for r := byte(2); r <= 14; r++ {
			deck = append(deck, New(r, s))
		}
	}
	return deck
}

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

// Shuffle is a uniform Fisher-Yates shuffle driven by rng.
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

// PopCard takes the top card (the end of the list).
func (ds *CardList) PopCard() (Card, bool) {
	totalCount := ds.Count()
	if totalCount == 0 {
		return CardInvalid, false
	}
	c := (*ds)[totalCount-1]
	*ds = (*ds)[:totalCount-1]
	return c, true
}

func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, 0, size)
	for i := 0; i < size; i++ {
		c, _ := ds.PopCard()
		cards = append(cards, c)
	}
	return cards, true
}

func (ds CardList) Contains(c Card) bool {
	for _, cc := range ds {
		if cc == c {
			return true
		}
	}
	return false
}

func (ds CardList) Strings() []string {
	out := make([]string, len(ds))
	for i, c := range ds {
		out[i] = c.String()
	}
	return out
}

func (ds CardList) String() string {
	return strings.Join(ds.Strings(), " ")
}
