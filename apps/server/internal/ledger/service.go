// Package ledger keeps the history of finished hands per player.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"holdem-live/holdem"
)

const (
	DefaultRecentLimit = 200
	defaultListLimit   = 20
	maxListLimit       = 100
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

var (
	ErrNotFound      = errors.New("hand not found")
	ErrInvalidRecord = errors.New("invalid hand record")
)

// Service stores finished hands. RecordHand is called from table actors,
// so implementations must be safe for concurrent use.
type Service interface {
	RecordHand(ctx context.Context, rec HandRecord) error
	// ListRecent returns the newest hands username took part in.
	ListRecent(ctx context.Context, username string, limit int) ([]HandRecord, error)
	GetHand(ctx context.Context, handID string) (HandRecord, error)
	Close() error
}

// HandRecord 一手牌的历史记录
type HandRecord struct {
	HandID     string       `json:"handId"`
	TableID    string       `json:"tableId"`
	TableName  string       `json:"tableName"`
	HandNumber uint64       `json:"handNumber"`
	PlayedAt   time.Time    `json:"playedAt"`
	SmallBlind holdem.Chips `json:"smallBlind"`
	BigBlind   holdem.Chips `json:"bigBlind"`

	Board           []string       `json:"board"`
	Pot             holdem.Chips   `json:"pot"`
	ByDefault       bool           `json:"byDefault"`
	Forced          bool           `json:"forced,omitempty"`
	Winners         []string       `json:"winners"`
	WinningHandName string         `json:"winningHandName,omitempty"`
	Players         []PlayerResult `json:"players"`
}

// PlayerResult is one participant's outcome. Hole cards are only kept
// for hands that were shown.
type PlayerResult struct {
	Username  string       `json:"username"`
	Seat      int          `json:"seat"`
	Committed holdem.Chips `json:"committed"`
	Won       holdem.Chips `json:"won"`
	Net       holdem.Chips `json:"net"`
	Shown     bool         `json:"shown"`
	HoleCards []string     `json:"holeCards,omitempty"`
	HandName  string       `json:"handName,omitempty"`
}

func (r HandRecord) validate() error {
	if strings.TrimSpace(r.HandID) == "" {
		return fmt.Errorf("%w: missing hand id", ErrInvalidRecord)
	}
	if len(r.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidRecord)
	}
	return nil
}

// Player returns the result for username.
func (r HandRecord) Player(username string) (PlayerResult, bool) {
	for _, p := range r.Players {
		if p.Username == username {
			return p, true
		}
	}
	return PlayerResult{}, false
}

// NewService opens the store selected by mode.
func NewService(ctx context.Context, mode, dbPath, dsn string, recentLimit int) (Service, string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", ModeMemory:
		return NewMemoryService(recentLimit), ModeMemory, nil
	case ModeSQLite, "local":
		s, err := NewSQLiteService(ctx, dbPath, recentLimit)
		return s, ModeSQLite, err
	case ModePostgres, "pg":
		s, err := NewPostgresService(ctx, dsn, recentLimit)
		return s, ModePostgres, err
	default:
		return nil, mode, fmt.Errorf("invalid ledger mode %q", mode)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// MemoryService keeps hands in process memory.
type MemoryService struct {
	mu          sync.RWMutex
	recentLimit int
	hands       map[string]HandRecord
	byUser      map[string][]string // username -> hand ids, oldest first
}

func NewMemoryService(recentLimit int) *MemoryService {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &MemoryService{
		recentLimit: recentLimit,
		hands:       make(map[string]HandRecord),
		byUser:      make(map[string][]string),
	}
}

func (s *MemoryService) Close() error { return nil }

func (s *MemoryService) RecordHand(_ context.Context, rec HandRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hands[rec.HandID]; exists {
		return nil
	}
	s.hands[rec.HandID] = rec
	for _, p := range rec.Players {
		ids := append(s.byUser[p.Username], rec.HandID)
		if over := len(ids) - s.recentLimit; over > 0 {
			for _, old := range ids[:over] {
				s.dropIfUnreferenced(old, p.Username)
			}
			ids = append([]string(nil), ids[over:]...)
		}
		s.byUser[p.Username] = ids
	}
	return nil
}

// dropIfUnreferenced deletes a hand once no other player still lists it.
func (s *MemoryService) dropIfUnreferenced(handID, except string) {
	rec, ok := s.hands[handID]
	if !ok {
		return
	}
	for _, p := range rec.Players {
		if p.Username == except {
			continue
		}
		for _, id := range s.byUser[p.Username] {
			if id == handID {
				return
			}
		}
	}
	delete(s.hands, handID)
}

func (s *MemoryService) ListRecent(_ context.Context, username string, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[username]
	items := make([]HandRecord, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(items) < limit; i-- {
		items = append(items, s.hands[ids[i]])
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].PlayedAt.After(items[j].PlayedAt) })
	return items, nil
}

func (s *MemoryService) GetHand(_ context.Context, handID string) (HandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.hands[handID]
	if !ok {
		return HandRecord{}, ErrNotFound
	}
	return rec, nil
}
