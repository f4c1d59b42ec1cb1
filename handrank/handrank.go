// Package handrank scores a 7-card Hold'em hand (2 hole + 5 board cards).
//
// Strength and the best five cards come from github.com/paulhankin/poker
// scores; the category is read off the shape of the winning five because
// the library only exposes scores and a free-text description.
package handrank

import (
	"errors"
	"fmt"

	"github.com/paulhankin/poker"

	"holdem-live/card"
)

// Hand categories, weakest first.
const (
	HighCard byte = iota + 1
	OnePair
	TwoPair
	ThreeOfKind
	Straight
	Flush
	FullHouse
	FourOfKind
	StraightFlush
	RoyalFlush
)

var categoryNames = map[byte]string{
	HighCard:      "High Card",
	OnePair:       "Pair",
	TwoPair:       "Two Pair",
	ThreeOfKind:   "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfKind:    "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

// CategoryName returns the display name of a category.
func CategoryName(category byte) string {
	if n, ok := categoryNames[category]; ok {
		return n
	}
	return "Unknown"
}

var (
	ErrCardCount     = errors.New("need 2 hole cards and 5 board cards")
	ErrDuplicateCard = errors.New("duplicate card")
)

// Result is what the engine needs from an evaluated hand.
type Result struct {
	Rank        int32 // larger is stronger; equal ranks tie
	Category    byte
	Name        string
	Description string
	Best        []card.Card
}

// Evaluator is the default hand-ranking capability.
type Evaluator struct{}

func (Evaluator) Evaluate(hole, board []card.Card) (Result, error) {
	if len(hole) != 2 || len(board) != 5 {
		return Result{}, ErrCardCount
	}
	all := make([]card.Card, 0, 7)
	all = append(all, hole...)
	all = append(all, board...)

	var seven [7]poker.Card
	seen := make(map[card.Card]bool, 7)
	for i, c := range all {
		if seen[c] {
			return Result{}, fmt.Errorf("%w: %s", ErrDuplicateCard, c)
		}
		seen[c] = true
		pc, err := toPoker(c)
		if err != nil {
			return Result{}, err
		}
		seven[i] = pc
	}

	desc, err := poker.Describe(seven[:])
	if err != nil {
		return Result{}, err
	}
	best, category := bestOf7(&seven, all)
	return Result{
		Rank:        int32(poker.Eval7(&seven)),
		Category:    category,
		Name:        CategoryName(category),
		Description: desc,
		Best:        best,
	}, nil
}

func toPoker(c card.Card) (poker.Card, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("invalid card %v", c)
	}
	var s poker.Suit
	switch c.Suit() {
	case card.Spade:
		s = poker.Spade
	case card.Heart:
		s = poker.Heart
	case card.Diamond:
		s = poker.Diamond
	default:
		s = poker.Club
	}
	r := c.Rank()
	if r == 14 {
		r = 1
	}
	return poker.MakeCard(s, poker.Rank(r))
}
