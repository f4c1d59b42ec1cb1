package holdem

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"holdem-live/card"
	"holdem-live/handrank"
)

const (
	DefaultMaxSeats      = 9
	DefaultMinPlayers    = 2
	DefaultStartingStack = Chips(100000)
	maxSeatsLimit        = 10
)

// HandEvaluator ranks 2 hole cards against a 5-card board.
type HandEvaluator interface {
	Evaluate(hole, board []card.Card) (handrank.Result, error)
}

type Config struct {
	MaxSeats   int
	MinPlayers int

	SmallBlind    Chips
	BigBlind      Chips
	StartingStack Chips

	// RNG seed (0 => time-based)
	Seed int64

	Evaluator HandEvaluator
	Logger    logrus.FieldLogger
}

func (c Config) withDefaults() Config {
	if c.MaxSeats == 0 {
		c.MaxSeats = DefaultMaxSeats
	}
	if c.MinPlayers == 0 {
		c.MinPlayers = DefaultMinPlayers
	}
	if c.StartingStack == 0 {
		c.StartingStack = DefaultStartingStack
	}
	if c.Evaluator == nil {
		c.Evaluator = handrank.Evaluator{}
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	return c
}

// Validate reports whether c, with defaults applied, describes a playable
// table.
func (c Config) Validate() error {
	return c.withDefaults().validate()
}

func (c Config) validate() error {
	if c.MaxSeats < 2 || c.MaxSeats > maxSeatsLimit {
		return fmt.Errorf("MaxSeats must be within 2..%d", maxSeatsLimit)
	}
	if c.MinPlayers < 2 || c.MinPlayers > c.MaxSeats {
		return fmt.Errorf("MinPlayers must be within 2..MaxSeats")
	}
	if c.SmallBlind <= 0 || c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("invalid blinds: sb=%s bb=%s", c.SmallBlind, c.BigBlind)
	}
	if c.StartingStack <= 0 {
		return fmt.Errorf("StartingStack must be > 0")
	}
	return nil
}
