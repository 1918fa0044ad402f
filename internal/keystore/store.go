package keystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// KeyName is the name the API key is stored under.
const KeyName = "openaiApiKey"

// Backend names.
const (
	BackendFile   = "file"
	BackendValkey = "valkey"
)

// ErrNotConfigured is returned when no API key has been stored.
var ErrNotConfigured = errors.New("API key not configured")

// Store holds the API key.
type Store interface {
	// Get returns the stored key or ErrNotConfigured.
	Get(ctx context.Context) (string, error)
	// Set stores key, replacing any previous value. An empty key is rejected.
	Set(ctx context.Context, key string) error
	// Delete removes the stored key. Deleting a missing key is not an error.
	Delete(ctx context.Context) error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string
	Valkey  ValkeyConfig
}

// New opens the store named by cfg.Backend. An empty backend selects the file
// store.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendFile:
		return NewFileStore(cfg.Path)
	case BackendValkey:
		return NewValkeyStore(cfg.Valkey)
	default:
		return nil, fmt.Errorf("unknown key store backend %q (supported: %s, %s)", cfg.Backend, BackendFile, BackendValkey)
	}
}

// WithOverride returns a Store whose Get prefers key when it is non-empty.
// Writes go to the underlying store.
func WithOverride(s Store, key string) Store {
	key = strings.TrimSpace(key)
	if key == "" {
		return s
	}
	return &override{Store: s, key: key}
}

type override struct {
	Store
	key string
}

func (o *override) Get(context.Context) (string, error) {
	return o.key, nil
}

func validateKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("API key cannot be empty")
	}
	return key, nil
}
