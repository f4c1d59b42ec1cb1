package holdem

import "holdem-live/card"

// StartHand starts a new hand on behalf of requester, who must be the
// table creator.
func (t *Table) StartHand(requester string) (*HandEvent, error) {
	if requester != t.creator {
		return nil, ErrNotCreator
	}
	return t.startHand()
}

// StartNextHand starts a hand without the creator check. The table actor
// uses it for the optional automatic next hand.
func (t *Table) StartNextHand() (*HandEvent, error) {
	return t.startHand()
}

// CanStartHand reports whether enough funded players are seated.
func (t *Table) CanStartHand() bool {
	if t.status == StatusPlaying {
		return false
	}
	n := 0
	for _, p := range t.players {
		if p.stack > 0 {
			n++
		}
	}
	return n >= t.cfg.MinPlayers
}

func (t *Table) startHand() (*HandEvent, error) {
	if t.status == StatusPlaying {
		return nil, ErrWrongStatus
	}
	if !t.CanStartHand() {
		return nil, ErrNotEnoughPlayers
	}

	t.status = StatusPlaying
	t.stage = StageDealing
	t.handNumber++
	t.resetHandState()
	t.deck = t.newDeck()
	for _, p := range t.players {
		p.resetForNewHand()
	}

	t.dealerSeat = NextActor(t, t.dealerSeat, false)
	t.log.Infof("[Table %s] hand #%d started, dealer seat %d", t.ID, t.handNumber, t.dealerSeat)

	ev := &HandEvent{}
	if !t.dealHoleCards() {
		t.forceEnd(ev)
		ev.Stage = t.stage
		return ev, nil
	}

	t.stage = StagePreflopBlinds
	t.setupBlinds(ev)
	ev.Stage = t.stage
	return ev, nil
}

func (t *Table) resetHandState() {
	t.smallBlindSeat = NoSeat
	t.bigBlindSeat = NoSeat
	t.currentTurnSeat = NoSeat
	t.currentBet = 0
	t.lastRaiserSeat = NoSeat
	t.lastRaiseSize = 0
	t.betToCloseRound = NoSeat
	t.numActionsThisRound = 0
	t.pot = 0
	t.communityCards = make(card.CardList, 0, 5)
	t.showdown = nil
}

// dealHoleCards deals two rounds of one card, starting left of the dealer.
func (t *Table) dealHoleCards() bool {
	order := make([]*Player, 0, len(t.players))
	for seat := NextActor(t, t.dealerSeat, false); seat != NoSeat; {
		order = append(order, t.PlayerAt(seat))
		seat = NextActor(t, seat, false)
		if seat == order[0].Seat {
			break
		}
	}
	for round := 0; round < 2; round++ {
		for _, p := range order {
			c, ok := t.deck.PopCard()
			if !ok {
				t.log.WithError(ErrDeckExhausted).Errorf("[Table %s] dealing hole cards", t.ID)
				return false
			}
			p.holeCards = append(p.holeCards, c)
		}
	}
	return true
}

func (t *Table) setupBlinds(ev *HandEvent) {
	sb := NextActor(t, t.dealerSeat, false)
	if t.countInHand() == 2 {
		// heads-up: the dealer posts the small blind and acts first preflop
		sb = t.dealerSeat
	}
	bb := NextActor(t, sb, false)
	t.smallBlindSeat = sb
	t.bigBlindSeat = bb

	sbPosted := t.postWager(t.PlayerAt(sb), t.cfg.SmallBlind)
	bbPosted := t.postWager(t.PlayerAt(bb), t.cfg.BigBlind)
	t.currentBet = maxChips(sbPosted, bbPosted)
	t.lastRaiserSeat = bb
	t.lastRaiseSize = t.cfg.BigBlind
	t.stage = StagePreflopBetting
	t.numActionsThisRound = 0

	canAct := t.countCanAct()
	if canAct == 0 {
		t.fastForward(ev)
		return
	}
	if canAct == 1 {
		var last *Player
		for _, p := range t.players {
			if p.canAct() {
				last = p
			}
		}
		if last.betInStage >= t.currentBet {
			t.fastForward(ev)
			return
		}
	}

	t.currentTurnSeat = NextActor(t, bb, true)
	if t.PlayerAt(bb).canAct() {
		t.betToCloseRound = bb
	} else {
		t.betToCloseRound = PreviousActiveSeat(t, bb)
	}
}

// advanceStreet closes the current street and deals the next one, or goes
// to showdown after the river.
func (t *Table) advanceStreet(ev *HandEvent) {
	aggressor := t.lastRaiserSeat
	t.resetStreet()

	if t.stage == StageRiverBetting {
		t.lastRaiserSeat = aggressor
		t.resolveShowdown(ev)
		return
	}

	next := nextBettingStage(t.stage)
	t.stage = StageDealing
	if !t.dealStreet(next) {
		t.lastRaiserSeat = aggressor
		t.forceEnd(ev)
		return
	}
	t.stage = next
	ev.StreetsDealt = append(ev.StreetsDealt, next)

	if t.countCanAct() < 2 {
		t.lastRaiserSeat = aggressor
		t.fastForward(ev)
		return
	}
	t.currentTurnSeat = FirstToActPostFlop(t)
	t.betToCloseRound = PreviousActiveSeat(t, t.currentTurnSeat)
}

func (t *Table) resetStreet() {
	for _, p := range t.players {
		p.betInStage = 0
	}
	t.currentBet = 0
	t.lastRaiserSeat = NoSeat
	t.lastRaiseSize = 0
	t.currentTurnSeat = NoSeat
	t.betToCloseRound = NoSeat
	t.numActionsThisRound = 0
}

func nextBettingStage(s Stage) Stage {
	switch s {
	case StagePreflopBetting:
		return StageFlopBetting
	case StageFlopBetting:
		return StageTurnBetting
	default:
		return StageRiverBetting
	}
}

// dealStreet burns one card and deals the community cards of stage.
func (t *Table) dealStreet(stage Stage) bool {
	n := stage.boardSize() - len(t.communityCards)
	if n <= 0 {
		return true
	}
	if _, ok := t.deck.PopCard(); !ok {
		t.log.WithError(ErrDeckExhausted).Errorf("[Table %s] burning for %s", t.ID, stage)
		return false
	}
	cards, ok := t.deck.PopCards(n)
	if !ok {
		t.log.WithError(ErrDeckExhausted).Errorf("[Table %s] dealing %s", t.ID, stage)
		return false
	}
	t.communityCards = append(t.communityCards, cards...)
	return true
}

// runOutBoard deals every remaining street without betting.
func (t *Table) runOutBoard() bool {
	for _, s := range []Stage{StageFlopBetting, StageTurnBetting, StageRiverBetting} {
		if len(t.communityCards) >= s.boardSize() {
			continue
		}
		if !t.dealStreet(s) {
			return false
		}
	}
	return true
}

// fastForward completes the board when fewer than two players can bet and
// resolves the hand.
func (t *Table) fastForward(ev *HandEvent) {
	t.currentTurnSeat = NoSeat
	t.betToCloseRound = NoSeat
	t.runOutBoard()
	t.resolveShowdown(ev)
}

// forceEnd terminates a hand that cannot continue.
func (t *Table) forceEnd(ev *HandEvent) {
	t.currentTurnSeat = NoSeat
	t.betToCloseRound = NoSeat
	t.resolveShowdown(ev)
}
