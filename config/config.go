package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	JWT       JWTConfig
	Firebase  FirebaseConfig
	Store     StoreConfig
	Reminders RemindersConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	Timezone    string // IANA zone calendar days and form dates are read in
}

type JWTConfig struct {
	Secret                 string
	Expiration             time.Duration
	RefreshTokenExpiration time.Duration
}

type FirebaseConfig struct {
	ProjectID       string
	CredentialsPath string
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend string // firestore, sql or memory
	DSN     string // sql backend only
}

// RemindersConfig locates the device-local reminder files.
type RemindersConfig struct {
	Dir string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

const (
	BackendFirestore = "firestore"
	BackendSQL       = "sql"
	BackendMemory    = "memory"
)

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("JWT_SECRET", "dev-secret-key")
	v.SetDefault("JWT_EXPIRATION", "30m")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json")
	v.SetDefault("STORE_BACKEND", BackendFirestore)
	v.SetDefault("STORE_DSN", "fireops.db")
	v.SetDefault("REMINDERS_DIR", "./data/reminders")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "60s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	// Missing .env is fine; the environment still applies.
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Host:        v.GetString("HOST"),
			Environment: v.GetString("ENVIRONMENT"),
			Timezone:    v.GetString("TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("JWT_SECRET"),
			Expiration:             parseDuration(v.GetString("JWT_EXPIRATION"), 30*time.Minute),
			RefreshTokenExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		},
		Firebase: FirebaseConfig{
			ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
			CredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
			DSN:     v.GetString("STORE_DSN"),
		},
		Reminders: RemindersConfig{
			Dir: v.GetString("REMINDERS_DIR"),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(v.GetString("ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	return cfg, nil
}

// parseDuration accepts Go durations, "<n>d" day counts and bare seconds.
func parseDuration(s string, defaultValue time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if strings.HasSuffix(s, "d") {
		var days int
		if _, err := fmt.Sscanf(strings.TrimSuffix(s, "d"), "%d", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	var secs int
	if _, err := fmt.Sscanf(s, "%d", &secs); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" || strings.EqualFold(c.Server.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Server.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "dev-secret-key" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	switch c.Store.Backend {
	case BackendFirestore:
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID must be set for the firestore backend")
		}
		if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase credentials file not found: %s", c.Firebase.CredentialsPath)
		}
	case BackendSQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("STORE_DSN must be set for the sql backend")
		}
	case BackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory store backend is not allowed in production")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of firestore, sql, memory (got %q)", c.Store.Backend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	return nil
}
