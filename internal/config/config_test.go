package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_ENV", "none")

	cfg, err := Load(nil)

	req.NoError(err)
	req.Equal(8080, cfg.Port)
	req.Equal("memory", cfg.Store.Driver)
	req.Equal(30*time.Minute, cfg.RoomExpiry)
	req.Equal(60*time.Second, cfg.LivenessTimeout)
	req.Equal(10*time.Second, cfg.SweepInterval)
	req.Equal(10*time.Minute, cfg.OrphanGrace)
	req.Equal(time.Second, cfg.ProbeTimeout)
	req.Equal(3*time.Second, cfg.SettleGrace)
	req.Equal(3, cfg.Delivery.Attempts)
	req.Equal(5*time.Second, cfg.Delivery.Timeout)
	req.Equal(10, cfg.HandshakeLimit)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "test")

	// Given a yaml file and an env override on top of it
	req.NoError(os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(
		"port: 9090\nroom_expiry: 5m\nstore:\n  driver: badger\n  badger_path: /tmp/h\n"), 0o644))
	t.Setenv("HANDOFF_PORT", "9191")
	t.Setenv("HANDOFF_DELIVERY_ATTEMPTS", "5")

	// When loading
	cfg, err := Load(viper.New())

	// Then the environment wins over the file, and the file over defaults
	req.NoError(err)
	req.Equal(9191, cfg.Port)
	req.Equal(5*time.Minute, cfg.RoomExpiry)
	req.Equal("badger", cfg.Store.Driver)
	req.Equal("/tmp/h", cfg.Store.BadgerPath)
	req.Equal(5, cfg.Delivery.Attempts)
}

func TestLoad_DotEnv(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CONFIG_ENV", "none")
	req.NoError(os.WriteFile(filepath.Join(dir, ".env"), []byte("HANDOFF_SWEEP_INTERVAL=2s\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("HANDOFF_SWEEP_INTERVAL") })

	cfg, err := Load(nil)

	req.NoError(err)
	req.Equal(2*time.Second, cfg.SweepInterval)
}

func TestValidate(t *testing.T) {
	t.Run("should reject postgres without url", func(t *testing.T) {
		cfg := Config{Port: 1, SweepInterval: time.Second, RoomExpiry: time.Minute, LivenessTimeout: time.Second,
			Store: Store{Driver: "postgres"}}
		require.Error(t, cfg.Validate())
	})
	t.Run("should reject a zero sweep interval", func(t *testing.T) {
		cfg := Config{Port: 1, RoomExpiry: time.Minute, LivenessTimeout: time.Second}
		require.Error(t, cfg.Validate())
	})
}
