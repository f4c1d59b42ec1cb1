package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-live/holdem"
)

func newCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "serve"}
	BindFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoad_Defaults(t *testing.T) {
	cmd := newCmd(t, "--env-file", "")
	cfg, err := Load(cmd)
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Addr)
	assert.Equal(t, "memory", cfg.AuthMode)
	assert.Equal(t, "memory", cfg.LedgerMode)
	assert.Equal(t, holdem.Whole(1000), cfg.StartingStack)
	assert.Equal(t, holdem.Whole(1), cfg.DefaultSmallBlind)
	assert.Equal(t, holdem.Whole(2), cfg.DefaultBigBlind)
	assert.Equal(t, 9, cfg.MaxSeats)
	assert.Zero(t, cfg.ActionTimeout)
	assert.Zero(t, cfg.AutoStartDelay)
	assert.Equal(t, 200, cfg.RecentLimit)

	tc := cfg.TableConfig(nil)
	assert.Equal(t, cfg.DefaultBigBlind, tc.Engine.BigBlind)
	assert.Equal(t, cfg.StartingStack, tc.Engine.StartingStack)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("HOLDEM_ADDR", ":9000")
	t.Setenv("HOLDEM_TABLE_ACTION_TIMEOUT", "20s")
	t.Setenv("HOLDEM_TABLE_DEFAULT_BIG_BLIND", "0.50")
	t.Setenv("HOLDEM_TABLE_DEFAULT_SMALL_BLIND", "0.25")
	t.Setenv("HOLDEM_LEDGER_MODE", "sqlite")

	cfg, err := Load(newCmd(t, "--env-file", "", "--ledger-mode", "postgres", "--db-dsn", "postgres://x"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 20*time.Second, cfg.ActionTimeout)
	assert.Equal(t, holdem.Chips(50), cfg.DefaultBigBlind)
	assert.Equal(t, holdem.Chips(25), cfg.DefaultSmallBlind)
	assert.Equal(t, "postgres", cfg.LedgerMode, "flags win over the environment")
	assert.Equal(t, "postgres://x", cfg.DSN)
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HOLDEM_LOG_FORMAT=json\nHOLDEM_TABLE_MAX_SEATS=6\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("HOLDEM_LOG_FORMAT")
		os.Unsetenv("HOLDEM_TABLE_MAX_SEATS")
	})

	cfg, err := Load(newCmd(t, "--env-file", path))
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 6, cfg.MaxSeats)
	_, isJSON := cfg.NewLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	_, err = Load(newCmd(t, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("HOLDEM_TABLE_DEFAULT_SMALL_BLIND", "5")
	_, err := Load(newCmd(t, "--env-file", ""))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(newCmd(t, "--env-file", ""))
	require.NoError(t, err)

	bad := cfg
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())
	bad = cfg
	bad.LogFormat = "xml"
	assert.Error(t, bad.Validate())
	bad = cfg
	bad.MaxSeats = 12
	assert.Error(t, bad.Validate())
	bad = cfg
	bad.ActionTimeout = -time.Second
	assert.Error(t, bad.Validate())
}
