// Package config loads server settings from the environment.
//
// Every setting is an environment variable (PORT, DB_PATH, JWT_SECRET, ...).
// main.go loads a .env file first, if present, so local development can keep
// them in one place.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MinSecretLength is the shortest JWT_SECRET accepted.
const MinSecretLength = 16

// Config holds the server configuration.
type Config struct {
	Port      int    `mapstructure:"port"`
	DBPath    string `mapstructure:"db_path"`
	StaticDir string `mapstructure:"static_dir"`

	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`

	// Timezone names the zone that decides where a calendar day begins,
	// e.g. "Asia/Kolkata". "Local" uses the host zone.
	Timezone string `mapstructure:"timezone"`

	// CORSAllowedOrigins lists the frontend origins allowed to make
	// credentialed requests. Empty means same-origin only; "*" allows any
	// origin without credentials.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminName     string `mapstructure:"admin_name"`

	// RedisAddr switches the token denylist from SQLite to Redis when set.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`

	// Resolved from Timezone by Load.
	Location *time.Location `mapstructure:"-"`
}

var keys = []string{
	"port",
	"db_path",
	"static_dir",
	"jwt_secret",
	"token_ttl",
	"cookie_secure",
	"timezone",
	"cors_allowed_origins",
	"admin_email",
	"admin_password",
	"admin_name",
	"redis_addr",
	"redis_password",
	"redis_db",
	"log_level",
	"log_format",
	"metrics_enabled",
}

// Load reads the configuration from the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "data/attendance.db")
	v.SetDefault("static_dir", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "1h")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("timezone", "Local")
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("admin_name", "Admin User")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", "debug")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_enabled", true)
}

func (c *Config) validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}
	c.Location = loc

	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	return level, nil
}
