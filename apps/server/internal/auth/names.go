package auth

import (
	"strings"
	"sync"
)

// Names tracks the display names claimed by connected users. A name is
// unique among connections, and a registered account name can only be
// claimed by a connection signed in to that account.
type Names struct {
	mu       sync.Mutex
	accounts Service
	byName   map[string]string // normalized name -> owner
	byOwner  map[string]string // owner -> display name
}

func NewNames(accounts Service) *Names {
	return &Names{
		accounts: accounts,
		byName:   make(map[string]string),
		byOwner:  make(map[string]string),
	}
}

// Claim binds username to owner (a connection id), releasing any name the
// owner held before. signedIn marks a name proven by an account session.
func (n *Names) Claim(owner, username string, signedIn bool) (string, error) {
	name := strings.TrimSpace(username)
	if err := ValidateUsername(name); err != nil {
		return "", err
	}
	if !signedIn && n.accounts != nil && n.accounts.IsRegistered(name) {
		return "", ErrUsernameTaken
	}
	key := normalizeUsername(name)

	n.mu.Lock()
	defer n.mu.Unlock()
	if cur, ok := n.byName[key]; ok && cur != owner {
		return "", ErrUsernameInUse
	}
	if prev, ok := n.byOwner[owner]; ok {
		delete(n.byName, normalizeUsername(prev))
	}
	n.byName[key] = owner
	n.byOwner[owner] = name
	return name, nil
}

// Release frees the owner's name, if any.
func (n *Names) Release(owner string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if prev, ok := n.byOwner[owner]; ok {
		delete(n.byName, normalizeUsername(prev))
		delete(n.byOwner, owner)
	}
}

// Name returns the display name claimed by owner.
func (n *Names) Name(owner string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	name, ok := n.byOwner[owner]
	return name, ok
}

// InUse reports whether a connected user currently holds username.
func (n *Names) InUse(username string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.byName[normalizeUsername(username)]
	return ok
}
