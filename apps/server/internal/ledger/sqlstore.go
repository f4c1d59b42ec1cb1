package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"holdem-live/apps/server/internal/storage"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLService stores hands in sqlite or postgres. Queries are written with
// ? placeholders and rebound for postgres.
type SQLService struct {
	db          *sql.DB
	dialect     dialect
	recentLimit int
}

func NewSQLiteService(ctx context.Context, dbPath string, recentLimit int) (*SQLService, error) {
	db, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return newSQLService(ctx, db, dialectSQLite, recentLimit)
}

// NewPostgresService connects and creates the ledger tables if missing.
func NewPostgresService(ctx context.Context, dsn string, recentLimit int) (*SQLService, error) {
	db, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return newSQLService(ctx, db, dialectPostgres, recentLimit)
}

func newSQLService(ctx context.Context, db *sql.DB, d dialect, recentLimit int) (*SQLService, error) {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	schema := sqliteLedgerSchema
	if d == dialectPostgres {
		schema = postgresLedgerSchema
	}
	if err := storage.ApplySchema(ctx, db, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return &SQLService{db: db, dialect: d, recentLimit: recentLimit}, nil
}

func (s *SQLService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLService) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLService) RecordHand(ctx context.Context, rec HandRecord) error {
	if err := rec.validate(); err != nil {
		return err
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	playedAtMs := rec.PlayedAt.UTC().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO ledger_hands (hand_id, table_id, hand_number, played_at_ms, record_json)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (hand_id) DO NOTHING
`), rec.HandID, rec.TableID, int64(rec.HandNumber), playedAtMs, string(raw)); err != nil {
		return fmt.Errorf("insert hand: %w", err)
	}

	for _, p := range rec.Players {
		if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO ledger_player_hands (username, hand_id, played_at_ms, net)
VALUES (?, ?, ?, ?)
ON CONFLICT (username, hand_id) DO NOTHING
`), p.Username, rec.HandID, playedAtMs, int64(p.Net)); err != nil {
			return fmt.Errorf("insert player hand: %w", err)
		}
		if err := s.trimTx(ctx, tx, p.Username); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
DELETE FROM ledger_hands
WHERE hand_id NOT IN (SELECT hand_id FROM ledger_player_hands)
`); err != nil {
		return fmt.Errorf("drop orphan hands: %w", err)
	}
	return tx.Commit()
}

// trimTx keeps only the newest recentLimit hands of username.
func (s *SQLService) trimTx(ctx context.Context, tx *sql.Tx, username string) error {
	offset := `LIMIT -1 OFFSET ?`
	if s.dialect == dialectPostgres {
		offset = `OFFSET ?`
	}
	_, err := tx.ExecContext(ctx, s.rebind(`
DELETE FROM ledger_player_hands
WHERE username = ?
  AND id IN (
      SELECT id
      FROM ledger_player_hands
      WHERE username = ?
      ORDER BY played_at_ms DESC, id DESC
      `+offset+`
  )
`), username, username, s.recentLimit)
	if err != nil {
		logrus.WithError(err).Warnf("[Ledger] trim history failed: user=%s", username)
	}
	return err
}

func (s *SQLService) ListRecent(ctx context.Context, username string, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT h.record_json
FROM ledger_player_hands AS p
JOIN ledger_hands AS h ON h.hand_id = p.hand_id
WHERE p.username = ?
ORDER BY p.played_at_ms DESC, p.id DESC
LIMIT ?
`), username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HandRecord, 0, limit)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec HandRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode hand record: %w", err)
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (s *SQLService) GetHand(ctx context.Context, handID string) (HandRecord, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT record_json FROM ledger_hands WHERE hand_id = ?`), handID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return HandRecord{}, ErrNotFound
	}
	if err != nil {
		return HandRecord{}, err
	}
	var rec HandRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return HandRecord{}, fmt.Errorf("decode hand record: %w", err)
	}
	return rec, nil
}

var sqliteLedgerSchema = []string{
	`
CREATE TABLE IF NOT EXISTS ledger_hands (
    hand_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    hand_number INTEGER NOT NULL,
    played_at_ms INTEGER NOT NULL,
    record_json TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS ledger_player_hands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    hand_id TEXT NOT NULL,
    played_at_ms INTEGER NOT NULL,
    net INTEGER NOT NULL DEFAULT 0,
    UNIQUE (username, hand_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_player_hands_recent ON ledger_player_hands(username, played_at_ms DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_player_hands_hand ON ledger_player_hands(hand_id)`,
}

var postgresLedgerSchema = []string{
	`
CREATE TABLE IF NOT EXISTS ledger_hands (
    hand_id TEXT PRIMARY KEY,
    table_id TEXT NOT NULL,
    hand_number BIGINT NOT NULL,
    played_at_ms BIGINT NOT NULL,
    record_json TEXT NOT NULL
)`,
	`
CREATE TABLE IF NOT EXISTS ledger_player_hands (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    hand_id TEXT NOT NULL,
    played_at_ms BIGINT NOT NULL,
    net BIGINT NOT NULL DEFAULT 0,
    UNIQUE (username, hand_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_player_hands_recent ON ledger_player_hands(username, played_at_ms DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_player_hands_hand ON ledger_player_hands(hand_id)`,
}
