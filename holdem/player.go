package holdem

import "holdem-live/card"

type Player struct {
	Username string
	Seat     int

	stack      Chips
	betInStage Chips
	committed  Chips // total wagered this hand

	status    PlayerStatus
	holeCards card.CardList
}

func (p *Player) Stack() Chips { return p.stack }
func (p *Player) BetInStage() Chips { return p.betInStage }
func (p *Player) Committed() Chips { return p.committed }
func (p *Player) Status() PlayerStatus { return p.status }
func (p *Player) HoleCards() []card.Card { return append([]card.Card(nil), p.holeCards...) }

// inHand reports whether the player still contests the pot.
func (p *Player) inHand() bool {
	return p.status == PlayerPlaying || p.status == PlayerAllIn
}

// canAct reports whether the player can still make betting decisions.
func (p *Player) canAct() bool {
	return p.status == PlayerPlaying && p.stack > 0
}

func (p *Player) resetForNewHand() {
	p.holeCards = make(card.CardList, 0, 2)
	p.betInStage = 0
	p.committed = 0
	if p.stack > 0 {
		p.status = PlayerPlaying
	} else {
		p.status = PlayerSittingOut
	}
}

func (p *Player) resetAfterHand() {
	p.holeCards = nil
	p.betInStage = 0
	if p.stack > 0 {
		p.status = PlayerWaiting
	} else {
		p.status = PlayerSittingOut
	}
}
