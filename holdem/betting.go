package holdem

// applyAction validates a single action against the current street and
// applies it. Nothing is mutated unless every check passes.
func (t *Table) applyAction(p *Player, a Action) error {
	switch a.Kind {
	case ActionFold:
		p.status = PlayerFolded
		return nil

	case ActionCheck:
		if p.betInStage != t.currentBet {
			return ErrInvalidActionForCurrentBet
		}
		return nil

	case ActionCall:
		if p.betInStage >= t.currentBet {
			return ErrInvalidActionForCurrentBet
		}
		t.postWager(p, t.currentBet-p.betInStage)
		return nil

	case ActionBet:
		if t.currentBet != 0 {
			return ErrInvalidActionForCurrentBet
		}
		if p.stack <= 0 {
			return ErrPlayerCannotAct
		}
		if a.Amount <= 0 {
			return ErrBelowMinimumBet
		}
		toAdd := a.Amount - p.betInStage
		if toAdd > p.stack {
			return ErrAmountExceedsStack
		}
		// all-in for less than the big blind is allowed
		if a.Amount < t.cfg.BigBlind && toAdd != p.stack {
			return ErrBelowMinimumBet
		}
		t.postWager(p, toAdd)
		t.currentBet = a.Amount
		t.lastRaiserSeat = p.Seat
		t.lastRaiseSize = a.Amount
		return nil

	case ActionRaise:
		if t.currentBet <= 0 {
			return ErrInvalidActionForCurrentBet
		}
		if a.Amount <= t.currentBet {
			return ErrBelowMinimumRaise
		}
		toAdd := a.Amount - p.betInStage
		if toAdd > p.stack {
			return ErrAmountExceedsStack
		}
		minTotal := t.MinRaiseTo()
		allIn := toAdd == p.stack
		if a.Amount < minTotal && !allIn {
			return ErrBelowMinimumRaise
		}
		prev := t.currentBet
		t.postWager(p, toAdd)
		t.currentBet = a.Amount
		t.lastRaiserSeat = p.Seat
		// a short all-in does not reset the minimum for later raisers
		if a.Amount >= minTotal {
			t.lastRaiseSize = a.Amount - prev
		}
		return nil

	default:
		return ErrUnknownActionType
	}
}

// MinRaiseTo is the smallest total a standard raise may reach this street.
func (t *Table) MinRaiseTo() Chips {
	return t.currentBet + maxChips(t.lastRaiseSize, t.cfg.BigBlind)
}

// postWager moves up to amount from the player's stack into the pot. A
// player whose stack reaches zero is all-in.
func (t *Table) postWager(p *Player, amount Chips) Chips {
	amount = minChips(amount, p.stack)
	if amount < 0 {
		amount = 0
	}
	p.stack -= amount
	p.betInStage += amount
	p.committed += amount
	t.pot += amount
	if p.stack == 0 && p.status == PlayerPlaying {
		p.status = PlayerAllIn
	}
	return amount
}

// LegalActions lists what the player could do right now, with the call
// amount owed. Used by clients and the turn timer.
func (t *Table) LegalActions(username string) ([]ActionKind, Chips) {
	p := t.Player(username)
	if p == nil || t.status != StatusPlaying || !t.stage.IsBetting() ||
		p.Seat != t.currentTurnSeat || !p.canAct() {
		return nil, 0
	}
	acts := []ActionKind{ActionFold}
	owed := t.currentBet - p.betInStage
	if owed <= 0 {
		acts = append(acts, ActionCheck)
	} else {
		acts = append(acts, ActionCall)
	}
	if t.currentBet == 0 {
		acts = append(acts, ActionBet)
	} else if p.stack > owed {
		acts = append(acts, ActionRaise)
	}
	return acts, minChips(maxChips(owed, 0), p.stack)
}
