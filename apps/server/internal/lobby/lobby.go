// Package lobby is the registry of live tables.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"holdem-live/apps/server/internal/ledger"
	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

var ErrTableNotFound = errors.New("table not found")

// Lobby manages all tables.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table

	// template for new tables; blinds are overridden per table
	defaultConfig table.Config
	ledger        ledger.Service
	log           logrus.FieldLogger
	hooks         []table.HandEndHook
}

func New(defaultConfig table.Config, ledgerService ledger.Service, log logrus.FieldLogger) *Lobby {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if defaultConfig.Engine.Logger == nil {
		defaultConfig.Engine.Logger = log
	}
	return &Lobby{
		tables:        make(map[string]*table.Table),
		defaultConfig: defaultConfig,
		ledger:        ledgerService,
		log:           log,
	}
}

// AddHandEndHook registers a hook on every table created afterwards.
func (l *Lobby) AddHandEndHook(hook table.HandEndHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, hook)
}

// Create opens a table owned by creator. Zero blinds fall back to the
// defaults; an empty name becomes "<creator>'s Table".
func (l *Lobby) Create(creator, name string, smallBlind, bigBlind holdem.Chips, broadcastFn table.Broadcaster) (*table.Table, error) {
	cfg := l.defaultConfig
	if smallBlind > 0 || bigBlind > 0 {
		cfg.Engine.SmallBlind = smallBlind
		cfg.Engine.BigBlind = bigBlind
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("%s's Table", creator)
	}

	id := uuid.NewString()
	t, err := table.New(id, name, creator, cfg, broadcastFn, l.ledger)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, hook := range l.hooks {
		t.AddHandEndHook(hook)
	}
	l.tables[id] = t
	l.mu.Unlock()

	l.log.Infof("[Lobby] %s created table %s (%q)", creator, id, name)
	return t, nil
}

func (l *Lobby) Get(tableID string) (*table.Table, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.tables[tableID]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}

// List returns the summaries of all tables, oldest name first.
func (l *Lobby) List() []table.Summary {
	l.mu.RLock()
	tables := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		tables = append(tables, t)
	}
	l.mu.RUnlock()

	out := make([]table.Summary, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove stops and forgets a table.
func (l *Lobby) Remove(tableID string) {
	l.mu.Lock()
	t, ok := l.tables[tableID]
	delete(l.tables, tableID)
	l.mu.Unlock()
	if ok {
		t.Stop()
		l.log.Infof("[Lobby] Removed table %s", tableID)
	}
}

// RemoveIfEmpty drops the table once nobody is seated.
func (l *Lobby) RemoveIfEmpty(tableID string) bool {
	t, err := l.Get(tableID)
	if err != nil || !t.IsEmpty() {
		return false
	}
	l.Remove(tableID)
	return true
}

// ReapIdle removes tables that have been empty (or closed) for ttl.
func (l *Lobby) ReapIdle(ttl time.Duration) int {
	l.mu.RLock()
	var idle []string
	for id, t := range l.tables {
		if t.IsIdleFor(ttl) {
			idle = append(idle, id)
		}
	}
	l.mu.RUnlock()

	for _, id := range idle {
		l.Remove(id)
	}
	return len(idle)
}

// RunReaper calls ReapIdle every interval until ctx is done.
func (l *Lobby) RunReaper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.ReapIdle(ttl); n > 0 {
				l.log.Infof("[Lobby] Reaped %d idle tables", n)
			}
		}
	}
}

// Close stops every table.
func (l *Lobby) Close() {
	l.mu.Lock()
	tables := l.tables
	l.tables = make(map[string]*table.Table)
	l.mu.Unlock()
	for _, t := range tables {
		t.Stop()
	}
}
