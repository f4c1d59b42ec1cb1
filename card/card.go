package card

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Card 牌
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Diamond, 3:Club)
// - 低4位: 点数 (2..9, 10:T, 11:J, 12:Q, 13:K, 14:A)
type Card byte

const CardInvalid Card = 0

type Suit byte

const (
	Spade Suit = iota
	Heart
	Diamond
	Club
)

var suitChars = [...]byte{'s', 'h', 'd', 'c'}

func (s Suit) String() string {
	if int(s) < len(suitChars) {
		return string(suitChars[s])
	}
	return "?"
}

const rankChars = "23456789TJQKA"

// New builds a card from a rank (2..14, ace high) and a suit.
func New(rank byte, suit Suit) Card {
	return Card(byte(suit)<<4 | rank)
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string(rankChars[c.Rank()-2]) + c.Suit().String()
}

// Rank 点数 2..14 (A=14)
func (c Card) Rank() byte {
	return byte(c & 0x0F)
}

func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) Valid() bool {
	r := c.Rank()
	return r >= 2 && r <= 14 && c.Suit() <= Club
}

// Parse converts "As", "Td" or "10h" into a Card.
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", s)
	}

	var suit Suit
	switch s[len(s)-1] {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'd', 'D':
		suit = Diamond
	case 'c', 'C':
		suit = Club
	default:
		return CardInvalid, fmt.Errorf("invalid suit: %q", s)
	}

	rankStr := strings.ToUpper(s[:len(s)-1])
	if rankStr == "10" {
		rankStr = "T"
	}
	if len(rankStr) != 1 {
		return CardInvalid, fmt.Errorf("invalid rank: %q", s)
	}
	idx := strings.IndexByte(rankChars, rankStr[0])
	if idx < 0 {
		return CardInvalid, fmt.Errorf("invalid rank: %q", s)
	}
	return New(byte(idx+2), suit), nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseList parses a space separated list such as "As Kd 7c".
func ParseList(s string) (CardList, error) {
	fields := strings.Fields(s)
	out := make(CardList, 0, len(fields))
	for _, f := range fields {
		c, err := Parse(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
