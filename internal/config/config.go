package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Store struct {
	Driver      string `mapstructure:"driver"`
	BadgerPath  string `mapstructure:"badger_path"`
	PostgresURL string `mapstructure:"postgres_url"`
}

type Delivery struct {
	Attempts int           `mapstructure:"attempts"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	Store    Store    `mapstructure:"store"`
	Delivery Delivery `mapstructure:"delivery"`

	RoomExpiry      time.Duration `mapstructure:"room_expiry"`
	LivenessTimeout time.Duration `mapstructure:"liveness_timeout"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	OrphanGrace     time.Duration `mapstructure:"orphan_grace"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	ReplayWindow    time.Duration `mapstructure:"replay_window"`
	SettleGrace     time.Duration `mapstructure:"settle_grace"`

	SendBuffer      int           `mapstructure:"send_buffer"`
	EventRate       float64       `mapstructure:"event_rate"`
	EventBurst      int           `mapstructure:"event_burst"`
	HandshakeLimit  int           `mapstructure:"handshake_limit"`
	HandshakeWindow time.Duration `mapstructure:"handshake_window"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "handoff-dev-secret")
	v.SetDefault("log_level", "info")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.badger_path", "./data/badger")
	v.SetDefault("store.postgres_url", "")
	v.SetDefault("delivery.attempts", 3)
	v.SetDefault("delivery.timeout", "5s")

	v.SetDefault("room_expiry", "30m")
	v.SetDefault("liveness_timeout", "60s")
	v.SetDefault("sweep_interval", "10s")
	v.SetDefault("orphan_grace", "10m")
	v.SetDefault("probe_timeout", "1s")
	v.SetDefault("replay_window", "60s")
	v.SetDefault("settle_grace", "3s")

	v.SetDefault("send_buffer", 32)
	v.SetDefault("event_rate", 20)
	v.SetDefault("event_burst", 40)
	v.SetDefault("handshake_limit", 10)
	v.SetDefault("handshake_window", "1m")
}

// Load reads config/config.<CONFIG_ENV>.yaml when present, then .env and HANDOFF_*
// variables on top. v may already carry bound flags; nil starts fresh.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("module", "config").Err(err).Msg(".env not loaded")
	}

	v.SetConfigType("yaml")
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	SetDefaults(v)
	v.SetEnvPrefix("HANDOFF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("store", cfg.Store.Driver).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case c.SweepInterval <= 0:
		return errors.New("sweep_interval must be positive")
	case c.RoomExpiry <= 0 || c.LivenessTimeout <= 0:
		return errors.New("room_expiry and liveness_timeout must be positive")
	case c.Store.Driver == "postgres" && c.Store.PostgresURL == "":
		return errors.New("store.postgres_url is required for the postgres driver")
	}
	return nil
}
