package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"holdem-live/apps/server/internal/storage"
)

const queryTimeout = 5 * time.Second

// SQLiteManager persists accounts and sessions in a local sqlite file, so
// registered names survive restarts. Usernames are unique case-insensitively;
// the casing chosen at registration is what other players see.
type SQLiteManager struct {
	db         *sql.DB
	sessionTTL time.Duration
}

func NewSQLiteManager(dbPath string, sessionTTL time.Duration) (*SQLiteManager, error) {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	db, err := storage.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	if err := storage.ApplySchema(ctx, db, sqliteAuthSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteManager{db: db, sessionTTL: sessionTTL}, nil
}

func (m *SQLiteManager) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// inTx runs fn in a transaction bounded by queryTimeout.
func (m *SQLiteManager) inTx(fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (m *SQLiteManager) Register(username, password string) (uint64, string, error) {
	if err := ValidateUsername(username); err != nil {
		return 0, "", err
	}
	if err := validatePassword(password); err != nil {
		return 0, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}

	var accountID uint64
	var token string
	err = m.inTx(func(ctx context.Context, tx *sql.Tx) error {
		nowMs := time.Now().UTC().UnixMilli()
		res, err := tx.ExecContext(ctx, `
INSERT INTO accounts (username, display_name, password_hash, created_at_ms, last_login_at_ms)
VALUES (?, ?, ?, ?, ?)
`, normalizeUsername(username), strings.TrimSpace(username), string(hash), nowMs, nowMs)
		if storage.IsUniqueViolation(err) {
			return ErrUsernameTaken
		}
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		accountID = uint64(id)
		token, err = m.issueSessionTx(ctx, tx, accountID, nowMs)
		return err
	})
	if err != nil {
		return 0, "", err
	}
	return accountID, token, nil
}

func (m *SQLiteManager) Login(username, password string) (uint64, string, error) {
	key := normalizeUsername(username)
	if key == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	var accountID uint64
	var token string
	err := m.inTx(func(ctx context.Context, tx *sql.Tx) error {
		var hash string
		err := tx.QueryRowContext(ctx,
			`SELECT id, password_hash FROM accounts WHERE username = ?`, key,
		).Scan(&accountID, &hash)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
			return ErrInvalidCredentials
		}
		nowMs := time.Now().UTC().UnixMilli()
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET last_login_at_ms = ? WHERE id = ?`, nowMs, accountID,
		); err != nil {
			return err
		}
		token, err = m.issueSessionTx(ctx, tx, accountID, nowMs)
		return err
	})
	if err != nil {
		return 0, "", err
	}
	return accountID, token, nil
}

// ResolveSession validates token and slides its expiry.
func (m *SQLiteManager) ResolveSession(token string) (accountID uint64, username string, ok bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, "", false
	}
	err := m.inTx(func(ctx context.Context, tx *sql.Tx) error {
		nowMs := time.Now().UTC().UnixMilli()
		err := tx.QueryRowContext(ctx, `
SELECT s.account_id, a.display_name
FROM auth_sessions AS s
JOIN accounts AS a ON a.id = s.account_id
WHERE s.token = ?
  AND s.revoked_at_ms IS NULL
  AND s.expires_at_ms > ?
`, token, nowMs).Scan(&accountID, &username)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE auth_sessions SET expires_at_ms = ? WHERE token = ?`,
			nowMs+m.sessionTTL.Milliseconds(), token)
		return err
	})
	if err != nil {
		return 0, "", false
	}
	return accountID, username, true
}

func (m *SQLiteManager) Logout(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}
	_ = m.inTx(func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE auth_sessions SET revoked_at_ms = ? WHERE token = ? AND revoked_at_ms IS NULL`,
			time.Now().UTC().UnixMilli(), token)
		return err
	})
}

func (m *SQLiteManager) IsRegistered(username string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	var one int
	err := m.db.QueryRowContext(ctx,
		`SELECT 1 FROM accounts WHERE username = ?`, normalizeUsername(username),
	).Scan(&one)
	return err == nil
}

func (m *SQLiteManager) issueSessionTx(ctx context.Context, tx *sql.Tx, accountID uint64, nowMs int64) (string, error) {
	expiresAtMs := nowMs + m.sessionTTL.Milliseconds()
	for attempt := 0; attempt < 5; attempt++ {
		token := mustToken()
		_, err := tx.ExecContext(ctx, `
INSERT INTO auth_sessions (token, account_id, issued_at_ms, expires_at_ms)
VALUES (?, ?, ?, ?)
`, token, accountID, nowMs, expiresAtMs)
		if storage.IsUniqueViolation(err) {
			continue
		}
		if err != nil {
			return "", err
		}
		return token, nil
	}
	return "", fmt.Errorf("failed to generate unique session token")
}

var sqliteAuthSchema = []string{
	`
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL,
    last_login_at_ms INTEGER
)`,
	`
CREATE TABLE IF NOT EXISTS auth_sessions (
    token TEXT PRIMARY KEY,
    account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    issued_at_ms INTEGER NOT NULL,
    expires_at_ms INTEGER NOT NULL,
    revoked_at_ms INTEGER
)`,
	`CREATE INDEX IF NOT EXISTS idx_auth_sessions_account ON auth_sessions(account_id)`,
}
