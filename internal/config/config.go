package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrMissingSecret = errors.New("jwt_secret is required")
	ErrBadDriver     = errors.New("db.driver must be sqlite or postgres")
	ErrBadPolicy     = errors.New("slow_consumer must be kick or ignore")
)

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	GRPCPort      int           `mapstructure:"grpc_port"`
	LogLevel      string        `mapstructure:"log_level"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	SessionSecret string        `mapstructure:"session_secret"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	PongWait      time.Duration `mapstructure:"pong_wait"`
	WriteWait     time.Duration `mapstructure:"write_wait"`
	SendBuffer    int           `mapstructure:"send_buffer"`
	StoreTimeout  time.Duration `mapstructure:"store_timeout"`
	SlowConsumer  string        `mapstructure:"slow_consumer"`

	DB        DBConfig        `mapstructure:"db"`
	Replay    ReplayConfig    `mapstructure:"replay"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ReplayConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type RateLimitConfig struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads config/config.<CONFIG_ENV>.yaml over the defaults below.
// CANVAS_* variables, optionally from a .env file, override both.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("CANVAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("grpc_port", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("session_secret", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("store_timeout", "5s")
	v.SetDefault("slow_consumer", "kick")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "./data/canvas.db")
	v.SetDefault("replay.default_limit", 50)
	v.SetDefault("replay.max_limit", 200)
	v.SetDefault("rate_limit.messages", 120)
	v.SetDefault("rate_limit.interval", "1s")

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.DB.Driver).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.SessionSecret == "" {
		c.SessionSecret = c.JWTSecret
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %q", ErrBadDriver, c.DB.Driver)
	}
	switch c.SlowConsumer {
	case "kick", "ignore":
	default:
		return fmt.Errorf("%w: %q", ErrBadPolicy, c.SlowConsumer)
	}
	return nil
}
