package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment override, e.g. TUTOR_AUTH_JWT_SECRET.
const EnvPrefix = "TUTOR"

const minSecretLength = 16

// Config captures the settings of the tutoring core and its adapters.
type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Reporting ReportingConfig `mapstructure:"reporting"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// StoreConfig selects the relational backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// SQLiteConfig configures the embedded store.
type SQLiteConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

// PostgresConfig configures the production store.
type PostgresConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig configures notification delivery. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig holds the shared HS256 secret used to verify tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReportingConfig holds report pricing.
type ReportingConfig struct {
	SessionRate float64 `mapstructure:"session_rate"`
}

// MetricsConfig points at the node-exporter textfile. Empty disables the export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("sqlite.path", "tutor.db")
	v.SetDefault("sqlite.busy_timeout", "5s")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_open_conns", 25)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("reporting.session_rate", 20.0)
	v.SetDefault("metrics.textfile", "")
}

// Load resolves configuration from defaults, the optional YAML file at path,
// dotenv files and the process environment, in increasing precedence.
// Without explicit envFiles a ".env" in the working directory is read when present.
// Variables already set in the environment win over dotenv entries.
func Load(path string, envFiles ...string) (Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("設定ファイルを読み込めません: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("設定値を解析できません: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf(".env を読み込めません: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Auth.JWTSecret = strings.TrimSpace(c.Auth.JWTSecret)
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
}

// Validate reports missing and invalid keys, missing ones first.
func (c Config) Validate() error {
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	} else if len(c.Auth.JWTSecret) < minSecretLength {
		invalid = append(invalid, "auth.jwt_secret")
	}

	switch c.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(c.SQLite.Path) == "" {
			missing = append(missing, "sqlite.path")
		}
		if c.SQLite.BusyTimeout < 0 {
			invalid = append(invalid, "sqlite.busy_timeout")
		}
	case "postgres":
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			missing = append(missing, "postgres.dsn")
		}
		if c.Postgres.MaxOpenConns < 0 {
			invalid = append(invalid, "postgres.max_open_conns")
		}
	default:
		invalid = append(invalid, "store.driver")
	}

	if c.Redis.DB < 0 {
		invalid = append(invalid, "redis.db")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		invalid = append(invalid, "log.level")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		invalid = append(invalid, "log.format")
	}
	if c.Reporting.SessionRate <= 0 {
		invalid = append(invalid, "reporting.session_rate")
	}

	if len(missing) > 0 {
		return fmt.Errorf("必須の設定値がありません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("設定値が不正です: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// RedisEnabled reports whether notifications go through Redis.
func (c Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
