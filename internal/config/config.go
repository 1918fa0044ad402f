package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/teemow/inboxai/internal/completion"
	"github.com/teemow/inboxai/internal/keystore"
	"github.com/teemow/inboxai/internal/logging"
)

// Prefix is the environment variable prefix.
const Prefix = "INBOXAI"

// Config holds the application settings.
type Config struct {
	// Completion
	CompletionProvider string `envconfig:"COMPLETION_PROVIDER" default:"openai"`
	CompletionModel    string `envconfig:"COMPLETION_MODEL"`
	CompletionBaseURL  string `envconfig:"COMPLETION_BASE_URL"`
	// APIKey overrides the stored key when set.
	APIKey string `envconfig:"OPENAI_API_KEY"`

	// Context gathering
	SourceTimeout  time.Duration `envconfig:"SOURCE_TIMEOUT" default:"5s"`
	MailMaxResults int64         `envconfig:"MAIL_MAX_RESULTS" default:"10"`
	InboxLimit     int64         `envconfig:"INBOX_LIMIT" default:"10"`
	TimeZone       string        `envconfig:"TIMEZONE"`

	// Google
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleAccessToken  string `envconfig:"GOOGLE_ACCESS_TOKEN"`
	TokenDir           string `envconfig:"TOKEN_DIR"`

	// Key store
	KeyStore       string `envconfig:"KEYSTORE" default:"file"`
	KeyStorePath   string `envconfig:"KEYSTORE_PATH"`
	ValkeyURL      string `envconfig:"VALKEY_URL"`
	ValkeyPassword string `envconfig:"VALKEY_PASSWORD"`
	ValkeyTLS      bool   `envconfig:"VALKEY_TLS_ENABLED"`
	ValkeyPrefix   string `envconfig:"VALKEY_KEY_PREFIX" default:"inboxai:"`
	ValkeyDB       int    `envconfig:"VALKEY_DB"`

	// Server
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	// Logging
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	Debug     bool   `envconfig:"DEBUG"`

	location *time.Location
}

// Load reads the given .env files (or ./.env when none are given), then the
// environment, and validates the result. Missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings and resolves the time zone.
func (c *Config) Validate() error {
	switch strings.ToLower(c.CompletionProvider) {
	case completion.ProviderOpenAI, completion.ProviderAnthropic:
	default:
		return fmt.Errorf("invalid completion provider %q (must be %s or %s)",
			c.CompletionProvider, completion.ProviderOpenAI, completion.ProviderAnthropic)
	}

	switch strings.ToLower(c.KeyStore) {
	case keystore.BackendFile:
	case keystore.BackendValkey:
		if c.ValkeyURL == "" {
			return errors.New("valkey URL is required when the key store backend is valkey")
		}
	default:
		return fmt.Errorf("invalid key store backend %q (must be %s or %s)",
			c.KeyStore, keystore.BackendFile, keystore.BackendValkey)
	}

	if c.SourceTimeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got %s", c.SourceTimeout)
	}
	if c.MailMaxResults <= 0 {
		return fmt.Errorf("mail max results must be positive, got %d", c.MailMaxResults)
	}
	if c.InboxLimit <= 0 {
		return fmt.Errorf("inbox limit must be positive, got %d", c.InboxLimit)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}

	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (must be %s or %s)", c.LogFormat, logging.FormatText, logging.FormatJSON)
	}

	c.location = time.Local
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
		}
		c.location = loc
	}
	return nil
}

// Location returns the configured time zone, or the local one.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Completion returns the completion provider settings.
func (c *Config) Completion() completion.Config {
	return completion.Config{
		Provider: c.CompletionProvider,
		Model:    c.CompletionModel,
		BaseURL:  c.CompletionBaseURL,
	}
}

// KeyStoreConfig returns the key store settings.
func (c *Config) KeyStoreConfig() keystore.Config {
	return keystore.Config{
		Backend: c.KeyStore,
		Path:    c.KeyStorePath,
		Valkey: keystore.ValkeyConfig{
			URL:        c.ValkeyURL,
			Password:   c.ValkeyPassword,
			TLSEnabled: c.ValkeyTLS,
			KeyPrefix:  c.ValkeyPrefix,
			DB:         c.ValkeyDB,
		},
	}
}

// HasGoogleClient reports whether OAuth client credentials are configured.
func (c *Config) HasGoogleClient() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
