package holdem

import (
	"holdem-live/card"
	"holdem-live/handrank"
)

// Muck reasons.
const (
	MuckBeaten      = "beaten"
	MuckUnevaluable = "unevaluable"
)

// ShowdownResult 一手牌的结算结果
type ShowdownResult struct {
	HandNumber uint64 `json:"handNumber"`
	// ByDefault is set when one player was left and no hands were compared.
	ByDefault bool `json:"byDefault"`
	// Forced is set when the hand had to be terminated early.
	Forced bool        `json:"forced,omitempty"`
	Board  []card.Card `json:"board"`
	Pot    Chips       `json:"pot"`

	// Players in reveal order.
	Players []PlayerShowdown `json:"players"`
	Winners []string         `json:"winners"`

	WinningHandName string `json:"winningHandName,omitempty"`
	WinningHandDesc string `json:"winningHandDescription,omitempty"`
}

type PlayerShowdown struct {
	Username  string      `json:"username"`
	Seat      int         `json:"seat"`
	HoleCards []card.Card `json:"-"`
	Committed Chips       `json:"committed"`

	Evaluated       bool        `json:"evaluated"`
	HandName        string      `json:"handName,omitempty"`
	HandDescription string      `json:"handDescription,omitempty"`
	HandRank        int32       `json:"handRank,omitempty"`
	Category        byte        `json:"category,omitempty"`
	BestFive        []card.Card `json:"bestFive,omitempty"`

	Shown      bool   `json:"shown"`
	MuckReason string `json:"muckReason,omitempty"`
	IsWinner   bool   `json:"isWinner"`
	Won        Chips  `json:"won"`
}

// Entry returns the showdown entry for username.
func (r *ShowdownResult) Entry(username string) *PlayerShowdown {
	if r == nil {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].Username == username {
			return &r.Players[i]
		}
	}
	return nil
}

// resolveShowdown settles the pot and ends the hand.
func (t *Table) resolveShowdown(ev *HandEvent) {
	t.stage = StageShowdown
	t.currentTurnSeat = NoSeat
	t.betToCloseRound = NoSeat

	res := &ShowdownResult{
		HandNumber: t.handNumber,
		Board:      append([]card.Card(nil), t.communityCards...),
		Pot:        t.pot,
	}

	players := t.revealOrder()
	switch len(players) {
	case 0:
		t.log.WithError(ErrNoEligiblePlayers).Errorf("[Table %s] hand #%d ended with pot %s undistributed",
			t.ID, t.handNumber, t.pot)
		res.Forced = true
		res.ByDefault = true
	case 1:
		p := players[0]
		res.ByDefault = true
		res.Players = []PlayerShowdown{{
			Username:  p.Username,
			Seat:      p.Seat,
			HoleCards: p.HoleCards(),
			Committed: p.committed,
			IsWinner:  true,
		}}
		t.distribute(res, []int{0})
	default:
		t.compareHands(res, players)
	}

	t.finishHand(res)
	ev.Showdown = res
}

// revealOrder lists the showdown players starting at the last aggressor
// (else first clockwise of the dealer, else lowest seat) going clockwise.
func (t *Table) revealOrder() []*Player {
	eligible := func(p *Player) bool {
		return p != nil && p.inHand() && len(p.holeCards) == 2
	}
	var bySeat []*Player
	for _, p := range t.Players() {
		if eligible(p) {
			bySeat = append(bySeat, p)
		}
	}
	if len(bySeat) == 0 {
		return nil
	}

	start := NoSeat
	if eligible(t.PlayerAt(t.lastRaiserSeat)) {
		start = t.lastRaiserSeat
	} else if t.dealerSeat != NoSeat {
		for i := 1; i <= t.cfg.MaxSeats; i++ {
			s := seatAfter(t.dealerSeat, i, t.cfg.MaxSeats)
			if eligible(t.PlayerAt(s)) {
				start = s
				break
			}
		}
	}
	if start == NoSeat {
		start = bySeat[0].Seat
	}

	order := make([]*Player, 0, len(bySeat))
	for i := 0; i < t.cfg.MaxSeats; i++ {
		if p := t.PlayerAt(seatAfter(start, i, t.cfg.MaxSeats)); eligible(p) {
			order = append(order, p)
		}
	}
	return order
}

func (t *Table) compareHands(res *ShowdownResult, players []*Player) {
	results := make([]handrank.Result, len(players))
	evaluated := make([]bool, len(players))
	res.Players = make([]PlayerShowdown, len(players))

	anyEvaluated := false
	for i, p := range players {
		res.Players[i] = PlayerShowdown{
			Username:  p.Username,
			Seat:      p.Seat,
			HoleCards: p.HoleCards(),
			Committed: p.committed,
		}
		if len(t.communityCards) != 5 {
			continue
		}
		r, err := t.cfg.Evaluator.Evaluate(p.holeCards, t.communityCards)
		if err != nil {
			t.log.WithError(err).Warnf("[Table %s] cannot evaluate %s", t.ID, p.Username)
			continue
		}
		results[i], evaluated[i] = r, true
		anyEvaluated = true
		ps := &res.Players[i]
		ps.Evaluated = true
		ps.HandName = r.Name
		ps.HandDescription = r.Description
		ps.HandRank = r.Rank
		ps.Category = r.Category
		ps.BestFive = r.Best
	}

	if !anyEvaluated {
		// nothing to compare: everybody still in splits the pot
		t.log.Errorf("[Table %s] hand #%d forced split, board has %d cards", t.ID, t.handNumber, len(t.communityCards))
		res.Forced = true
		winners := make([]int, len(players))
		for i := range players {
			winners[i] = i
			res.Players[i].MuckReason = MuckUnevaluable
			res.Players[i].IsWinner = true
		}
		t.distribute(res, winners)
		return
	}

	var best int32
	first := true
	for i := range players {
		if evaluated[i] && (first || results[i].Rank > best) {
			best = results[i].Rank
			first = false
		}
	}

	var winners []int
	for i := range players {
		if evaluated[i] && results[i].Rank == best {
			winners = append(winners, i)
			res.Players[i].IsWinner = true
		}
	}

	// show/muck: first to reveal shows, later hands show only if they at
	// least tie the best hand shown so far
	var bestShown int32
	shownAny := false
	for i := range players {
		ps := &res.Players[i]
		if !evaluated[i] {
			ps.MuckReason = MuckUnevaluable
			continue
		}
		if !shownAny || results[i].Rank >= bestShown {
			ps.Shown = true
			if !shownAny || results[i].Rank > bestShown {
				bestShown = results[i].Rank
			}
			shownAny = true
			continue
		}
		ps.MuckReason = MuckBeaten
	}

	w := results[winners[0]]
	res.WinningHandName = w.Name
	res.WinningHandDesc = w.Description
	t.distribute(res, winners)
}

// distribute splits the pot equally among winners (indexes into
// res.Players, reveal order). The odd minor units go to the first winner.
func (t *Table) distribute(res *ShowdownResult, winners []int) {
	if len(winners) == 0 {
		return
	}
	share := t.pot / Chips(len(winners))
	remainder := t.pot - share*Chips(len(winners))
	for k, i := range winners {
		won := share
		if k == 0 {
			won += remainder
		}
		ps := &res.Players[i]
		p := t.Player(ps.Username)
		p.stack += won
		ps.Won = won
		res.Winners = append(res.Winners, ps.Username)
	}
	t.pot = 0
}

func (t *Table) finishHand(res *ShowdownResult) {
	t.pot = 0
	t.status = StatusFinished
	t.stage = StageShowdownComplete
	t.currentTurnSeat = NoSeat
	t.betToCloseRound = NoSeat
	t.currentBet = 0
	t.deck = nil
	for _, p := range t.players {
		p.resetAfterHand()
	}
	t.showdown = res
	t.log.Infof("[Table %s] hand #%d complete, winners %v, pot %s", t.ID, t.handNumber, res.Winners, res.Pot)
}
