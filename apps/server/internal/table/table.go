// Package table runs one goroutine per poker table. Every mutation of a
// table's hand state goes through that goroutine, in arrival order.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"holdem-live/apps/server/internal/ledger"
	"holdem-live/card"
	"holdem-live/holdem"
	"holdem-live/holdem/npc"
)

// Table is the actor wrapping one holdem.Table.
type Table struct {
	ID   string
	Name string

	cfg Config
	log *logrus.Entry

	mu       sync.RWMutex
	game     *holdem.Table
	closed   bool
	stopOnce sync.Once

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	serverSeq uint64

	// Timers, all driven from the actor tick.
	turnSeat       int
	actionDeadline time.Time
	botActAt       time.Time
	nextHandAt     time.Time
	emptySince     time.Time

	broadcast Broadcaster
	ledger    ledger.Service
	bots      *npc.Manager

	// Per-hand bookkeeping for the ledger.
	handID        string
	handStartedAt time.Time
	startStacks   map[string]holdem.Chips
	departed      map[string]holdem.Chips // left mid-hand -> chips committed

	handEndHooks []HandEndHook
}

// Config contains table settings.
type Config struct {
	Engine holdem.Config
	// ActionTimeout auto-checks (or folds) a stalled player. Zero disables
	// the turn clock.
	ActionTimeout time.Duration
	// AutoStartDelay starts the next hand this long after one ends. Zero
	// leaves it to the creator.
	AutoStartDelay time.Duration
	// TickInterval drives the timers; defaults to 500ms.
	TickInterval time.Duration
	Personas     *npc.PersonaRegistry
	// BotThinkDelay bounds how long bots wait before acting.
	BotThinkDelay time.Duration
}

// Update is pushed to every seated user after each accepted change.
type Update struct {
	TableID string
	Seq     uint64
	View    holdem.View
}

// Broadcaster delivers an update to one user. It must not block.
type Broadcaster func(username string, u Update)

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventStartHand
	EventAction
	EventAddBot
	EventClose
)

func (e EventType) String() string {
	switch e {
	case EventJoin:
		return "join"
	case EventLeave:
		return "leave"
	case EventStartHand:
		return "start_hand"
	case EventAction:
		return "action"
	case EventAddBot:
		return "add_bot"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Event represents a message to the table actor
type Event struct {
	Type      EventType
	Username  string
	Action    holdem.Action
	PersonaID string
	Timestamp time.Time
	Response  chan error
}

// HandEndInfo is emitted when a hand has been settled.
type HandEndInfo struct {
	TableID string
	HandID  string
	Record  ledger.HandRecord
	Result  *holdem.ShowdownResult
}

// HandEndHook is a post-settlement callback. Hooks run on their own
// goroutine and must not call back into the table synchronously.
type HandEndHook func(info HandEndInfo)

// Summary is the lobby listing entry of a table.
type Summary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Creator     string        `json:"creator"`
	PlayerCount int           `json:"playerCount"`
	MaxPlayers  int           `json:"maxPlayers"`
	SmallBlind  holdem.Chips  `json:"smallBlind"`
	BigBlind    holdem.Chips  `json:"bigBlind"`
	Status      holdem.Status `json:"status"`
}

var ErrTableClosed = errors.New("table closed")

const (
	defaultTickInterval = 500 * time.Millisecond
	ledgerWriteTimeout  = 3 * time.Second
)

// New creates a table and starts its actor goroutine.
func New(
	id, name, creator string,
	cfg Config,
	broadcastFn Broadcaster,
	ledgerService ledger.Service,
) (*Table, error) {
	if cfg.Engine.Logger == nil {
		cfg.Engine.Logger = logrus.StandardLogger()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if broadcastFn == nil {
		broadcastFn = func(string, Update) {}
	}
	if ledgerService == nil {
		ledgerService = ledger.NewMemoryService(0)
	}

	game, err := holdem.NewTable(id, name, creator, cfg.Engine)
	if err != nil {
		return nil, err
	}
	log := cfg.Engine.Logger.WithField("table", id)
	bots := npc.NewManager(cfg.Personas, cfg.Engine.Seed, log)
	bots.MaxThinkDelay = cfg.BotThinkDelay

	t := &Table{
		ID:         id,
		Name:       name,
		cfg:        cfg,
		log:        log,
		game:       game,
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		emptySince: time.Now(),
		broadcast:  broadcastFn,
		ledger:     ledgerService,
		bots:       bots,
	}
	go t.run()

	gc := game.Config()
	t.log.Infof("[Table %s] Created %q (max=%d, blinds=%s/%s)", id, name, gc.MaxSeats, gc.SmallBlind, gc.BigBlind)
	return t, nil
}

// run is the main actor loop
func (t *Table) run() {
	ticker := time.NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			t.log.Infof("[Table %s] Actor stopped", t.ID)
			return
		}
	}
}

// handleEvent processes a single event
func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	var err error
	switch e.Type {
	case EventJoin:
		err = t.handleJoin(e.Username)
	case EventLeave:
		err = t.handleLeave(e.Username)
	case EventStartHand:
		err = t.handleStartHand(e.Username)
	case EventAction:
		err = t.handleAction(e.Username, e.Action)
	case EventAddBot:
		err = t.handleAddBot(e.Username, e.PersonaID)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %s", e.Type)
	}
	if err != nil {
		t.log.WithError(err).Debugf("[Table %s] %s by %s rejected", t.ID, e.Type, e.Username)
	}
	return err
}

func (t *Table) handleJoin(username string) error {
	seat, err := t.game.Join(username)
	if err != nil {
		return err
	}
	t.log.Infof("[Table %s] %s joined seat %d", t.ID, username, seat)
	t.updateEmptySinceLocked(time.Now())
	t.scheduleAutoStartLocked(time.Now())
	t.broadcastAll()
	return nil
}

func (t *Table) handleLeave(username string) error {
	if err := t.leaveLocked(username); err != nil {
		return err
	}
	if t.humanCount() == 0 {
		// bots never keep a table alive on their own
		for _, bot := range t.bots.Bots() {
			if err := t.leaveLocked(bot); err != nil {
				t.log.WithError(err).Warnf("[Table %s] removing bot %s failed", t.ID, bot)
			}
		}
	}
	t.updateEmptySinceLocked(time.Now())
	t.broadcastAll()
	return nil
}

func (t *Table) leaveLocked(username string) error {
	p := t.game.Player(username)
	if p == nil {
		return holdem.ErrPlayerNotFound
	}
	if _, dealt := t.startStacks[username]; dealt && t.game.Status() == holdem.StatusPlaying {
		t.departed[username] = p.Committed()
	}
	ev, err := t.game.Leave(username)
	if err != nil {
		return err
	}
	t.bots.Despawn(username)
	t.log.Infof("[Table %s] %s left", t.ID, username)
	t.afterChangeLocked(ev, time.Now())
	return nil
}

func (t *Table) handleStartHand(username string) error {
	ev, err := t.game.StartHand(username)
	if err != nil {
		return err
	}
	t.onHandStartedLocked(ev, time.Now())
	return nil
}

func (t *Table) handleAction(username string, action holdem.Action) error {
	ev, err := t.game.Act(username, action)
	if err != nil {
		return err
	}
	t.afterChangeLocked(ev, time.Now())
	t.broadcastAll()
	return nil
}

func (t *Table) handleAddBot(requester, personaID string) error {
	if requester != t.game.Creator() {
		return holdem.ErrNotCreator
	}
	if t.game.Status() == holdem.StatusPlaying {
		return holdem.ErrGameInProgress
	}
	inst, err := t.bots.Spawn(personaID)
	if err != nil {
		return err
	}
	if _, err := t.game.Join(inst.Username); err != nil {
		t.bots.Despawn(inst.Username)
		return err
	}
	t.log.Infof("[Table %s] bot %s (%s) seated by %s", t.ID, inst.Username, inst.Persona.Name, requester)
	t.scheduleAutoStartLocked(time.Now())
	t.broadcastAll()
	return nil
}

func (t *Table) onHandStartedLocked(ev *holdem.HandEvent, now time.Time) {
	t.nextHandAt = time.Time{}
	t.handID = uuid.NewString()
	t.handStartedAt = now.UTC()
	t.startStacks = make(map[string]holdem.Chips)
	t.departed = make(map[string]holdem.Chips)
	if ev.HandEnded() {
		// settled during the blinds (everyone all-in)
		for _, e := range ev.Showdown.Players {
			if p := t.game.Player(e.Username); p != nil {
				t.startStacks[e.Username] = p.Stack() - e.Won + e.Committed
			}
		}
	} else {
		for _, p := range t.game.Players() {
			if len(p.HoleCards()) > 0 {
				// blinds are already posted
				t.startStacks[p.Username] = p.Stack() + p.Committed()
			}
		}
	}
	t.log.Infof("[Table %s] Hand #%d (%s) started, dealer seat %d", t.ID, t.game.HandNumber(), t.handID, t.game.DealerSeat())
	t.afterChangeLocked(ev, now)
	t.broadcastAll()
}

// afterChangeLocked settles a finished hand and re-arms the turn timers.
func (t *Table) afterChangeLocked(ev *holdem.HandEvent, now time.Time) {
	if ev.HandEnded() {
		t.handleHandEndLocked(ev.Showdown, now)
	}
	t.clearTurnTimersLocked()
	if t.game.Status() != holdem.StatusPlaying {
		return
	}
	p := t.game.CurrentTurnPlayer()
	if p == nil {
		return
	}
	t.turnSeat = p.Seat
	if t.cfg.ActionTimeout > 0 && !t.bots.IsBot(p.Username) {
		t.actionDeadline = now.Add(t.cfg.ActionTimeout)
	}
	if t.bots.IsBot(p.Username) {
		t.botActAt = now.Add(t.bots.ThinkDelay(p.Username))
	}
}

func (t *Table) handleHandEndLocked(res *holdem.ShowdownResult, now time.Time) {
	t.log.Infof("[Table %s] Hand #%d ended, winners %v", t.ID, res.HandNumber, res.Winners)
	rec := t.buildHandRecord(res)
	if len(rec.Players) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), ledgerWriteTimeout)
		if err := t.ledger.RecordHand(ctx, rec); err != nil {
			t.log.WithError(err).Errorf("[Table %s] record hand %s failed", t.ID, rec.HandID)
		}
		cancel()
	}
	t.dispatchHandEndHooks(HandEndInfo{TableID: t.ID, HandID: t.handID, Record: rec, Result: res})

	t.handID = ""
	t.startStacks = nil
	t.departed = nil
	t.scheduleAutoStartLocked(now)
}

func (t *Table) buildHandRecord(res *holdem.ShowdownResult) ledger.HandRecord {
	gc := t.game.Config()
	rec := ledger.HandRecord{
		HandID:          t.handID,
		TableID:         t.ID,
		TableName:       t.Name,
		HandNumber:      res.HandNumber,
		PlayedAt:        t.handStartedAt,
		SmallBlind:      gc.SmallBlind,
		BigBlind:        gc.BigBlind,
		Board:           card.CardList(res.Board).Strings(),
		Pot:             res.Pot,
		ByDefault:       res.ByDefault,
		Forced:          res.Forced,
		Winners:         append([]string(nil), res.Winners...),
		WinningHandName: res.WinningHandName,
	}
	for _, p := range t.game.Players() {
		start, dealt := t.startStacks[p.Username]
		if !dealt {
			continue
		}
		pr := ledger.PlayerResult{
			Username: p.Username,
			Seat:     p.Seat,
			Net:      p.Stack() - start,
		}
		if e := res.Entry(p.Username); e != nil {
			pr.Committed = e.Committed
			pr.Won = e.Won
			if e.Shown {
				pr.Shown = true
				pr.HandName = e.HandName
				pr.HoleCards = card.CardList(e.HoleCards).Strings()
			}
		} else {
			pr.Committed = start - p.Stack()
		}
		rec.Players = append(rec.Players, pr)
	}
	for username, committed := range t.departed {
		rec.Players = append(rec.Players, ledger.PlayerResult{
			Username:  username,
			Committed: committed,
			Net:       -committed,
		})
	}
	return rec
}

func (t *Table) dispatchHandEndHooks(info HandEndInfo) {
	if len(t.handEndHooks) == 0 {
		return
	}
	hooks := append([]HandEndHook(nil), t.handEndHooks...)
	for _, hook := range hooks {
		go func(cb HandEndHook) {
			defer func() {
				if r := recover(); r != nil {
					t.log.Errorf("[Table %s] hand end hook panic: %v", t.ID, r)
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	now := time.Now()
	if err := t.handleTimeoutLocked(now); err != nil {
		t.log.WithError(err).Warnf("[Table %s] timeout handler failed", t.ID)
	}
	t.botTurnLocked(now)
	if !t.nextHandAt.IsZero() && !now.Before(t.nextHandAt) {
		t.nextHandAt = time.Time{}
		if t.game.CanStartHand() {
			ev, err := t.game.StartNextHand()
			if err != nil {
				t.log.WithError(err).Warnf("[Table %s] delayed hand start failed", t.ID)
				return
			}
			t.onHandStartedLocked(ev, now)
		}
	}
}

// handleTimeoutLocked checks for the stalled player if that is free, and
// folds them otherwise.
func (t *Table) handleTimeoutLocked(now time.Time) error {
	if t.actionDeadline.IsZero() || now.Before(t.actionDeadline) {
		return nil
	}
	seat := t.turnSeat
	t.actionDeadline = time.Time{}
	p := t.game.CurrentTurnPlayer()
	if p == nil || p.Seat != seat {
		return nil
	}
	action := holdem.Fold()
	legal, _ := t.game.LegalActions(p.Username)
	for _, k := range legal {
		if k == holdem.ActionCheck {
			action = holdem.Check()
		}
	}
	t.log.Infof("[Table %s] Action timeout seat=%d user=%s -> auto %s", t.ID, seat, p.Username, action)
	return t.handleAction(p.Username, action)
}

func (t *Table) botTurnLocked(now time.Time) {
	if t.botActAt.IsZero() || now.Before(t.botActAt) {
		return
	}
	t.botActAt = time.Time{}
	p := t.game.CurrentTurnPlayer()
	if p == nil || !t.bots.IsBot(p.Username) {
		return
	}
	action := t.bots.OnTurn(t.game, p.Username)
	if err := t.handleAction(p.Username, action); err != nil {
		t.log.WithError(err).Warnf("[Table %s] bot %s %s rejected, folding", t.ID, p.Username, action)
		_ = t.handleAction(p.Username, holdem.Fold())
	}
}

func (t *Table) scheduleAutoStartLocked(now time.Time) {
	if t.cfg.AutoStartDelay <= 0 || t.game.Status() == holdem.StatusPlaying || !t.nextHandAt.IsZero() {
		return
	}
	if t.game.CanStartHand() {
		t.nextHandAt = now.Add(t.cfg.AutoStartDelay)
	}
}

// SubmitEvent sends an event to the actor and waits for its result.
func (t *Table) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

func (t *Table) Join(username string) error {
	return t.SubmitEvent(Event{Type: EventJoin, Username: username})
}

func (t *Table) Leave(username string) error {
	return t.SubmitEvent(Event{Type: EventLeave, Username: username})
}

func (t *Table) StartHand(username string) error {
	return t.SubmitEvent(Event{Type: EventStartHand, Username: username})
}

func (t *Table) Act(username string, action holdem.Action) error {
	return t.SubmitEvent(Event{Type: EventAction, Username: username, Action: action})
}

// AddBot seats a house bot; only the creator may do this between hands.
func (t *Table) AddBot(requester, personaID string) error {
	return t.SubmitEvent(Event{Type: EventAddBot, Username: requester, PersonaID: personaID})
}

// Stop shuts down the table actor
func (t *Table) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) stopLocked() {
	t.closed = true
	t.nextHandAt = time.Time{}
	t.clearTurnTimersLocked()
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

func (t *Table) clearTurnTimersLocked() {
	t.turnSeat = holdem.NoSeat
	t.actionDeadline = time.Time{}
	t.botActAt = time.Time{}
}

func (t *Table) updateEmptySinceLocked(now time.Time) {
	if !t.game.IsEmpty() {
		t.emptySince = time.Time{}
		return
	}
	if t.emptySince.IsZero() {
		t.emptySince = now
	}
}

func (t *Table) humanCount() int {
	n := 0
	for _, p := range t.game.Players() {
		if !t.bots.IsBot(p.Username) {
			n++
		}
	}
	return n
}

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}

// broadcastAll sends every seated human their own redacted view.
func (t *Table) broadcastAll() {
	seq := t.nextSeq()
	for _, p := range t.game.Players() {
		if t.bots.IsBot(p.Username) {
			continue
		}
		t.broadcast(p.Username, Update{TableID: t.ID, Seq: seq, View: t.game.View(p.Username)})
	}
}

// View returns the table as seen by viewer.
func (t *Table) View(viewer string) holdem.View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.game.View(viewer)
}

func (t *Table) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	gc := t.game.Config()
	return Summary{
		ID:          t.ID,
		Name:        t.Name,
		Creator:     t.game.Creator(),
		PlayerCount: t.game.PlayerCount(),
		MaxPlayers:  gc.MaxSeats,
		SmallBlind:  gc.SmallBlind,
		BigBlind:    gc.BigBlind,
		Status:      t.game.Status(),
	}
}

func (t *Table) IsEmpty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.game.IsEmpty()
}

// HasPlayer reports whether username is seated.
func (t *Table) HasPlayer(username string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.game.Player(username) != nil
}

func (t *Table) IsIdleFor(ttl time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return true
	}
	if !t.game.IsEmpty() || t.emptySince.IsZero() {
		return false
	}
	return time.Since(t.emptySince) >= ttl
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// AddHandEndHook registers a post-settlement callback.
func (t *Table) AddHandEndHook(hook HandEndHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.handEndHooks = append(t.handEndHooks, hook)
	t.mu.Unlock()
}

// Personas lists the bots that can be seated.
func (t *Table) Personas() []*npc.Persona {
	return t.bots.Registry().All()
}
