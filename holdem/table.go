package holdem

import (
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"holdem-live/card"
)

// Table is the aggregate a single hand engine operates on. It carries no
// lock: callers serialize access (see apps/server/internal/table).
type Table struct {
	ID      string
	Name    string
	creator string

	cfg Config
	rng *rand.Rand
	log logrus.FieldLogger

	players []*Player // join order

	status     Status
	stage      Stage
	handNumber uint64

	dealerSeat     int
	smallBlindSeat int
	bigBlindSeat   int

	currentTurnSeat     int
	currentBet          Chips
	lastRaiserSeat      int
	lastRaiseSize       Chips
	betToCloseRound     int
	numActionsThisRound int

	pot            Chips
	communityCards card.CardList
	deck           card.CardList

	showdown *ShowdownResult

	// newDeck builds the deck for a hand; tests stack it.
	newDeck func() card.CardList
}

func NewTable(id, name, creator string, cfg Config) (*Table, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t := &Table{
		ID:      id,
		Name:    name,
		creator: creator,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		log:     cfg.Logger.WithField("table", id),
		status:  StatusWaiting,
		stage:   StageNone,
	}
	t.newDeck = func() card.CardList {
		d := card.NewDeck()
		d.Shuffle(t.rng)
		return d
	}
	return t, nil
}

func (t *Table) Config() Config { return t.cfg }
func (t *Table) Creator() string { return t.creator }
func (t *Table) Status() Status { return t.status }
func (t *Table) Stage() Stage { return t.stage }
func (t *Table) HandNumber() uint64 { return t.handNumber }
func (t *Table) DealerSeat() int { return t.dealerSeat }
func (t *Table) SmallBlindSeat() int { return t.smallBlindSeat }
func (t *Table) BigBlindSeat() int { return t.bigBlindSeat }
func (t *Table) CurrentTurnSeat() int { return t.currentTurnSeat }
func (t *Table) CurrentBet() Chips { return t.currentBet }
func (t *Table) LastRaiserSeat() int { return t.lastRaiserSeat }
func (t *Table) LastRaiseSize() Chips { return t.lastRaiseSize }
func (t *Table) BetToCloseRound() int { return t.betToCloseRound }
func (t *Table) NumActionsThisRound() int { return t.numActionsThisRound }
func (t *Table) Pot() Chips { return t.pot }
func (t *Table) IsEmpty() bool { return len(t.players) == 0 }
func (t *Table) PlayerCount() int { return len(t.players) }

// LastShowdown returns the result of the most recent completed hand.
func (t *Table) LastShowdown() *ShowdownResult { return t.showdown }

func (t *Table) CommunityCards() []card.Card {
	return append([]card.Card(nil), t.communityCards...)
}

// Players returns the seated players ordered by seat.
func (t *Table) Players() []*Player {
	out := append([]*Player(nil), t.players...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out
}

func (t *Table) Player(username string) *Player {
	for _, p := range t.players {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (t *Table) PlayerAt(seat int) *Player {
	if seat == NoSeat {
		return nil
	}
	for _, p := range t.players {
		if p.Seat == seat {
			return p
		}
	}
	return nil
}

// CurrentTurnPlayer returns the player expected to act, or nil.
func (t *Table) CurrentTurnPlayer() *Player { return t.PlayerAt(t.currentTurnSeat) }

// TotalChips is the sum of stacks plus the pot. Constant through a hand.
func (t *Table) TotalChips() Chips {
	total := t.pot
	for _, p := range t.players {
		total += p.stack
	}
	return total
}

// Join seats a player in the lowest free seat with the starting stack.
func (t *Table) Join(username string) (int, error) {
	if t.Player(username) != nil {
		return NoSeat, ErrAlreadySeated
	}
	if t.status == StatusPlaying {
		return NoSeat, ErrGameInProgress
	}
	if len(t.players) >= t.cfg.MaxSeats {
		return NoSeat, ErrTableFull
	}
	seat := NoSeat
	for s := 1; s <= t.cfg.MaxSeats; s++ {
		if t.PlayerAt(s) == nil {
			seat = s
			break
		}
	}
	if seat == NoSeat {
		return NoSeat, ErrTableFull
	}
	t.players = append(t.players, &Player{
		Username: username,
		Seat:     seat,
		stack:    t.cfg.StartingStack,
		status:   PlayerWaiting,
	})
	if t.creator == "" {
		t.creator = username
	}
	t.log.Infof("[Table %s] %s sat at seat %d", t.ID, username, seat)
	return seat, nil
}

// Leave removes a player. Mid-hand it is treated as a fold: the turn moves
// on, or the round closes, or the hand ends if one player is left.
func (t *Table) Leave(username string) (*HandEvent, error) {
	p := t.Player(username)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	ev := &HandEvent{}
	if t.status == StatusPlaying && p.inHand() {
		wasTurn := t.stage.IsBetting() && t.currentTurnSeat == p.Seat
		p.status = PlayerFolded
		if wasTurn {
			t.numActionsThisRound++
			t.afterAction(p, Fold(), ev)
		} else {
			if t.betToCloseRound == p.Seat {
				t.betToCloseRound = PreviousActiveSeat(t, p.Seat)
			}
			if t.countInHand() <= 1 {
				t.resolveShowdown(ev)
			}
		}
	}
	t.removePlayer(p)
	if t.creator == username {
		t.creator = ""
		if ps := t.Players(); len(ps) > 0 {
			t.creator = ps[0].Username
		}
	}
	t.log.Infof("[Table %s] %s left seat %d", t.ID, username, p.Seat)
	ev.Stage = t.stage
	return ev, nil
}

func (t *Table) removePlayer(p *Player) {
	for i, q := range t.players {
		if q == p {
			t.players = append(t.players[:i], t.players[i+1:]...)
			return
		}
	}
}

func (t *Table) countInHand() int {
	n := 0
	for _, p := range t.players {
		if p.inHand() {
			n++
		}
	}
	return n
}

func (t *Table) countCanAct() int {
	n := 0
	for _, p := range t.players {
		if p.canAct() {
			n++
		}
	}
	return n
}

// HandEvent describes what an accepted operation did to the hand.
type HandEvent struct {
	// Stage after the operation.
	Stage Stage
	// Streets dealt during the operation, in order.
	StreetsDealt []Stage
	// Showdown is set when the hand ended.
	Showdown *ShowdownResult
}

func (e *HandEvent) HandEnded() bool { return e != nil && e.Showdown != nil }
