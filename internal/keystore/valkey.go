package keystore

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// DefaultValkeyKeyPrefix is prepended to KeyName.
const DefaultValkeyKeyPrefix = "inboxai:"

// ValkeyConfig configures the Valkey backend.
type ValkeyConfig struct {
	// URL is the server address, e.g. "valkey.namespace.svc:6379".
	URL        string
	Password   string
	TLSEnabled bool
	KeyPrefix  string
	DB         int
}

// ValkeyStore keeps the key in Valkey.
type ValkeyStore struct {
	client valkey.Client
	key    string
}

// NewValkeyStore connects to the configured server.
func NewValkeyStore(cfg ValkeyConfig) (*ValkeyStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("valkey URL is required")
	}
	opt := valkey.ClientOption{
		InitAddress:  []string{cfg.URL},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	}
	if cfg.TLSEnabled {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.URL, err)
	}
	return &ValkeyStore{client: client, key: valkeyKey(cfg.KeyPrefix)}, nil
}

func valkeyKey(prefix string) string {
	if prefix == "" {
		prefix = DefaultValkeyKeyPrefix
	}
	return prefix + KeyName
}

func (s *ValkeyStore) Get(ctx context.Context) (string, error) {
	v, err := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", ErrNotConfigured
	}
	if err != nil {
		return "", fmt.Errorf("failed to read API key from valkey: %w", err)
	}
	if v == "" {
		return "", ErrNotConfigured
	}
	return v, nil
}

func (s *ValkeyStore) Set(ctx context.Context, key string) error {
	key, err := validateKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.key).Value(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to store API key in valkey: %w", err)
	}
	return nil
}

func (s *ValkeyStore) Delete(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete API key from valkey: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
