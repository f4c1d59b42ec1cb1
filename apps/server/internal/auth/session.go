package auth

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	tokenBytes        = 32
)

// Manager keeps accounts and sessions in memory. Everything is lost on
// restart, which matches the in-memory tables.
type Manager struct {
	mu sync.Mutex

	nextAccountID uint64
	sessionTTL    time.Duration
	sessions      map[string]session  // token -> session
	accounts      map[string]*account // normalized username -> account
}

type session struct {
	accountID uint64
	username  string
	expiresAt time.Time
}

type account struct {
	id           uint64
	username     string // casing chosen at registration
	passwordHash []byte
	lastLogin    time.Time
}

func NewManager() *Manager {
	return NewManagerWithTTL(defaultSessionTTL)
}

func NewManagerWithTTL(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Manager{
		nextAccountID: 100000,
		sessionTTL:    ttl,
		sessions:      make(map[string]session),
		accounts:      make(map[string]*account),
	}
}

func (m *Manager) Close() error { return nil }

func (m *Manager) issueSessionLocked(acc *account, now time.Time) string {
	token := mustToken()
	m.sessions[token] = session{
		accountID: acc.id,
		username:  acc.username,
		expiresAt: now.Add(m.sessionTTL),
	}
	return token
}

// Register creates an account and signs it in.
func (m *Manager) Register(username, password string) (uint64, string, error) {
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
	key := normalizeUsername(username)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[key]; exists {
		return 0, "", ErrUsernameTaken
	}
	m.nextAccountID++
	now := time.Now()
	acc := &account{
		id:           m.nextAccountID,
		username:     strings.TrimSpace(username),
		passwordHash: hash,
		lastLogin:    now,
	}
	m.accounts[key] = acc
	return acc.id, m.issueSessionLocked(acc, now), nil
}

func (m *Manager) Login(username, password string) (uint64, string, error) {
	key := normalizeUsername(username)
	if key == "" || password == "" {
		return 0, "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[key]
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return 0, "", ErrInvalidCredentials
	}
	now := time.Now()
	acc.lastLogin = now
	return acc.id, m.issueSessionLocked(acc, now), nil
}

// ResolveSession validates token and slides its expiry.
func (m *Manager) ResolveSession(token string) (uint64, string, bool) {
	if token == "" {
		return 0, "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return 0, "", false
	}
	now := time.Now()
	if !now.Before(s.expiresAt) {
		delete(m.sessions, token)
		return 0, "", false
	}
	s.expiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = s
	return s.accountID, s.username, true
}

func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *Manager) IsRegistered(username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[normalizeUsername(username)]
	return ok
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
