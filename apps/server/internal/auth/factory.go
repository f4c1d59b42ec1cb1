package auth

import (
	"fmt"
	"strings"
	"time"
)

const (
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
)

// NewService builds the account store selected by mode.
func NewService(mode, dbPath string, sessionTTL time.Duration) (Service, string, error) {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case "", ModeMemory, "mem":
		return NewManagerWithTTL(sessionTTL), ModeMemory, nil
	case ModeSQLite, "local":
		m, err := NewSQLiteManager(dbPath, sessionTTL)
		if err != nil {
			return nil, ModeSQLite, err
		}
		return m, ModeSQLite, nil
	default:
		return nil, mode, fmt.Errorf("invalid auth mode %q (supported: %s, %s)", mode, ModeMemory, ModeSQLite)
	}
}
