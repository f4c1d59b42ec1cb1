package npc

import (
	"holdem-live/card"
	"holdem-live/holdem"
)

// GameView is the part of the table a bot is allowed to see.
type GameView struct {
	Stage        holdem.Stage
	HoleCards    []card.Card
	Community    []card.Card
	Pot          holdem.Chips
	CurrentBet   holdem.Chips
	MyBet        holdem.Chips
	MyStack      holdem.Chips
	BigBlind     holdem.Chips
	MinRaiseTo   holdem.Chips
	LegalActions []holdem.ActionKind
	ActiveCount  int
	Street       int // 0=preflop, 1=flop, 2=turn, 3=river
}

// BrainDecider is implemented by every bot type.
type BrainDecider interface {
	// Decide is called when it's the bot's turn.
	Decide(view GameView) holdem.Action
	// Name returns a human-readable identifier for debugging.
	Name() string
}

// BuildView projects the table onto what username may see. The caller
// must own the table (the table actor goroutine).
func BuildView(t *holdem.Table, username string) GameView {
	view := GameView{
		Stage:      t.Stage(),
		Community:  t.CommunityCards(),
		Pot:        t.Pot(),
		CurrentBet: t.CurrentBet(),
		BigBlind:   t.Config().BigBlind,
		MinRaiseTo: t.MinRaiseTo(),
	}
	if p := t.Player(username); p != nil {
		view.HoleCards = p.HoleCards()
		view.MyBet = p.BetInStage()
		view.MyStack = p.Stack()
	}
	for _, p := range t.Players() {
		if s := p.Status(); s == holdem.PlayerPlaying || s == holdem.PlayerAllIn {
			view.ActiveCount++
		}
	}
	switch t.Stage() {
	case holdem.StageFlopBetting:
		view.Street = 1
	case holdem.StageTurnBetting:
		view.Street = 2
	case holdem.StageRiverBetting:
		view.Street = 3
	}
	view.LegalActions, _ = t.LegalActions(username)
	return view
}
