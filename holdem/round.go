package holdem

// Act validates and applies one player action, then runs round-close
// detection and stage control as a single step.
func (t *Table) Act(username string, a Action) (*HandEvent, error) {
	p := t.Player(username)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if t.status != StatusPlaying {
		return nil, ErrWrongStatus
	}
	if !t.stage.IsBetting() {
		return nil, ErrWrongStage
	}
	if p.Seat != t.currentTurnSeat {
		return nil, ErrNotYourTurn
	}
	if p.status != PlayerPlaying {
		return nil, ErrPlayerCannotAct
	}
	if err := t.applyAction(p, a); err != nil {
		return nil, err
	}
	t.numActionsThisRound++
	t.log.Debugf("[Table %s] seat %d %s (%s)", t.ID, p.Seat, p.Username, a)

	ev := &HandEvent{}
	t.afterAction(p, a, ev)
	ev.Stage = t.stage
	return ev, nil
}

// afterAction decides whether the street is over and moves the hand on.
func (t *Table) afterAction(actor *Player, a Action, ev *HandEvent) {
	closer := t.betToCloseRound
	if a.IsAggressive() {
		t.betToCloseRound = PreviousActiveSeat(t, actor.Seat)
	}

	if t.countInHand() <= 1 {
		t.resolveShowdown(ev)
		return
	}

	if t.roundClosed(actor, a, closer) {
		t.advanceStreet(ev)
		return
	}

	next := NextActor(t, actor.Seat, true)
	if next == NoSeat || next == actor.Seat {
		t.log.WithError(ErrNoPlayerCanAct).Errorf("[Table %s] forcing showdown at %s", t.ID, t.stage)
		t.runOutBoard()
		t.resolveShowdown(ev)
		return
	}
	t.currentTurnSeat = next
}

// roundClosed reports whether every live wager is matched and the action
// has come back to the closing seat.
func (t *Table) roundClosed(actor *Player, a Action, closer int) bool {
	var maxBet Chips
	for _, p := range t.players {
		if p.inHand() && p.betInStage > maxBet {
			maxBet = p.betInStage
		}
	}
	for _, p := range t.players {
		if !p.inHand() {
			continue
		}
		if p.betInStage != maxBet && p.status != PlayerAllIn {
			return false
		}
	}

	if actor.Seat == closer && !a.IsAggressive() {
		return true
	}
	// big blind option: an unraised big blind checks and the street is done
	if t.stage == StagePreflopBetting && a.Kind == ActionCheck &&
		actor.Seat == t.bigBlindSeat && t.lastRaiserSeat == t.bigBlindSeat {
		return true
	}
	// everyone matched and nobody else can still act
	for _, p := range t.players {
		if p != actor && p.canAct() {
			return false
		}
	}
	return true
}
