package npc

import (
	"math/rand"

	"holdem-live/holdem"
)

// RuleBrain makes decisions based on a PersonalityProfile.
type RuleBrain struct {
	Persona *Persona
	rng     *rand.Rand
}

func NewRuleBrain(persona *Persona, seed int64) *RuleBrain {
	return &RuleBrain{
		Persona: persona,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (b *RuleBrain) Name() string { return b.Persona.Name }

// Decide picks one of view.LegalActions.
func (b *RuleBrain) Decide(view GameView) holdem.Action {
	p := b.Persona.Brain

	// per-decision noise
	aggression := clamp01(p.Aggression + (b.rng.Float64()-0.5)*p.Randomness*0.4)
	tightness := clamp01(p.Tightness + (b.rng.Float64()-0.5)*p.Randomness*0.3)

	legal := view.LegalActions
	if len(legal) == 0 {
		return holdem.Fold()
	}
	canFold := contains(legal, holdem.ActionFold)
	canCheck := contains(legal, holdem.ActionCheck)
	canCall := contains(legal, holdem.ActionCall)
	canBet := contains(legal, holdem.ActionBet)
	canRaise := contains(legal, holdem.ActionRaise)

	strength := b.estimateHandStrength(view)

	// preflop: tight players drop marginal hands unless checking is free
	if view.Street == 0 && strength < tightness*0.6 && canFold {
		if canCheck {
			return holdem.Check()
		}
		return holdem.Fold()
	}

	aggressivePlay := strength > (1.0-aggression)*0.5
	if aggressivePlay {
		if canRaise {
			return holdem.Raise(b.raiseTo(view, aggression))
		}
		if canBet {
			return holdem.Bet(b.betAmount(view, aggression))
		}
	}

	if !aggressivePlay && b.rng.Float64() < p.Bluffing*0.3 {
		if canBet {
			return holdem.Bet(b.betAmount(view, 0.4))
		}
		if canRaise {
			return holdem.Raise(b.raiseTo(view, 0.4))
		}
	}

	if canCheck {
		return holdem.Check()
	}
	if canCall {
		// loose players call more often; tight players fold facing bets
		if strength > tightness*0.4 || b.rng.Float64() < (1.0-tightness)*0.5 || !canFold {
			return holdem.Call()
		}
	}
	return holdem.Fold()
}

// estimateHandStrength returns a 0.0–1.0 heuristic from the hole cards.
func (b *RuleBrain) estimateHandStrength(view GameView) float64 {
	if len(view.HoleCards) < 2 {
		return 0.3
	}
	c0, c1 := view.HoleCards[0], view.HoleCards[1]
	rank0, rank1 := int(c0.Rank()), int(c1.Rank())

	strength := float64(rank0+rank1) / 28.0
	if rank0 == rank1 {
		strength += 0.25
	}
	if c0.Suit() == c1.Suit() {
		strength += 0.05
	}
	gap := rank0 - rank1
	if gap < 0 {
		gap = -gap
	}
	if gap <= 2 {
		strength += 0.05
	}
	for _, c := range view.Community {
		// pairing the board
		if int(c.Rank()) == rank0 || int(c.Rank()) == rank1 {
			strength += 0.15
		}
	}
	if view.Street > 0 {
		strength += (b.rng.Float64() - 0.5) * 0.2
	}
	return clamp01(strength)
}

// betAmount sizes a bet between a third of the pot and the full pot.
func (b *RuleBrain) betAmount(view GameView, aggression float64) holdem.Chips {
	fraction := 0.33 + aggression*0.67
	bet := holdem.Chips(float64(view.Pot) * fraction)
	if bet < view.BigBlind {
		bet = view.BigBlind
	}
	return capAtStack(bet, view)
}

// raiseTo sizes a raise between the minimum and 3.5x the current bet.
func (b *RuleBrain) raiseTo(view GameView, aggression float64) holdem.Chips {
	multiplier := 2.0 + aggression*1.5
	to := holdem.Chips(float64(view.CurrentBet) * multiplier)
	if to < view.MinRaiseTo {
		to = view.MinRaiseTo
	}
	return capAtStack(to, view)
}

func capAtStack(amount holdem.Chips, view GameView) holdem.Chips {
	if all := view.MyStack + view.MyBet; amount > all {
		return all
	}
	return amount
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contains(actions []holdem.ActionKind, target holdem.ActionKind) bool {
	for _, a := range actions {
		if a == target {
			return true
		}
	}
	return false
}
