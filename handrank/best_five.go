package handrank

import (
	"math"
	"sort"

	"github.com/paulhankin/poker"

	"holdem-live/card"
)

// subsets lists the 21 ways to pick 5 of 7 positions.
var subsets = func() [][5]int {
	out := make([][5]int, 0, 21)
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						out = append(out, [5]int{a, b, c, d, e})
					}
				}
			}
		}
	}
	return out
}()

// bestOf7 picks the 5 of 7 cards the library scores highest. seven must
// hold the same cards as cards, in the same order.
func bestOf7(seven *[7]poker.Card, cards []card.Card) ([]card.Card, byte) {
	var (
		bestScore int16 = math.MinInt16
		bestIdx   [5]int
	)
	for _, idx := range subsets {
		five := [5]poker.Card{seven[idx[0]], seven[idx[1]], seven[idx[2]], seven[idx[3]], seven[idx[4]]}
		if score := poker.Eval5(&five); score > bestScore {
			bestScore, bestIdx = score, idx
		}
	}
	best := make([]card.Card, 0, 5)
	for _, i := range bestIdx {
		best = append(best, cards[i])
	}
	sort.SliceStable(best, func(i, j int) bool { return best[i].Rank() > best[j].Rank() })
	return best, categoryOf(best)
}

// categoryOf names the shape of five cards from their rank counts and suits.
func categoryOf(five []card.Card) byte {
	var counts [15]int
	flush := true
	for i, c := range five {
		counts[c.Rank()]++
		if i > 0 && c.Suit() != five[0].Suit() {
			flush = false
		}
	}
	var distinct, high, low, top, second int
	low = 15
	for r := 2; r <= 14; r++ {
		n := counts[r]
		if n == 0 {
			continue
		}
		distinct++
		high = max(high, r)
		low = min(low, r)
		switch {
		case n > top:
			top, second = n, top
		case n > second:
			second = n
		}
	}

	straight := distinct == 5 && (high-low == 4 || (high == 14 && counts[2]+counts[3]+counts[4]+counts[5] == 4))
	switch {
	case straight && flush && low == 10:
		return RoyalFlush
	case straight && flush:
		return StraightFlush
	case top == 4:
		return FourOfKind
	case top == 3 && second == 2:
		return FullHouse
	case flush:
		return Flush
	case straight:
		return Straight
	case top == 3:
		return ThreeOfKind
	case top == 2 && second == 2:
		return TwoPair
	case top == 2:
		return OnePair
	}
	return HighCard
}
