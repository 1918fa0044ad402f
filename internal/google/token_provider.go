package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxai/internal/instrumentation"
	"github.com/teemow/inboxai/internal/logging"
)

// TokenProvider supplies OAuth tokens for Google APIs. When interactive is true
// the provider may ask the user for consent; otherwise it only uses what it has.
// Every failure is an *AuthError.
type TokenProvider interface {
	Token(ctx context.Context, interactive bool) (*oauth2.Token, error)
}

// AuthCodePrompter shows authURL to the user and returns the authorization code
// they paste back. An empty code means consent was not given.
type AuthCodePrompter func(ctx context.Context, authURL string) (string, error)

// FileTokenProvider keeps a refreshable token in a file.
type FileTokenProvider struct {
	config  *oauth2.Config
	path    string
	prompt  AuthCodePrompter
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu sync.Mutex
}

// FileTokenProviderOption configures a FileTokenProvider.
type FileTokenProviderOption func(*FileTokenProvider)

// WithPrompter enables interactive authorization.
func WithPrompter(prompt AuthCodePrompter) FileTokenProviderOption {
	return func(p *FileTokenProvider) { p.prompt = prompt }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FileTokenProviderOption {
	return func(p *FileTokenProvider) { p.logger = logger }
}

// WithMetrics records token requests on m.
func WithMetrics(m *instrumentation.Metrics) FileTokenProviderOption {
	return func(p *FileTokenProvider) { p.metrics = m }
}

// NewFileTokenProvider creates a provider backed by the token file at path.
func NewFileTokenProvider(config *oauth2.Config, path string, opts ...FileTokenProviderOption) *FileTokenProvider {
	p := &FileTokenProvider{config: config, path: path}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.WithService(logging.OrDefault(p.logger), "google.oauth")
	return p
}

// Token returns a valid access token, refreshing the stored one if needed.
// Without a usable stored token it falls back to the prompter, but only when
// interactive is true.
func (p *FileTokenProvider) Token(ctx context.Context, interactive bool) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.storedToken(ctx)
	if err == nil {
		p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultSuccess)
		return tok, nil
	}

	if !interactive {
		p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultFailure)
		return nil, &AuthError{Err: err}
	}

	tok, err = p.authorize(ctx)
	if err != nil {
		p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultFailure)
		return nil, &AuthError{Err: err}
	}
	p.metrics.RecordTokenRequest(ctx, instrumentation.TokenResultInteractive)
	return tok, nil
}

func (p *FileTokenProvider) storedToken(ctx context.Context) (*oauth2.Token, error) {
	stored, err := LoadToken(p.path)
	if err != nil {
		return nil, err
	}

	fresh, err := p.config.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("cached token is invalid: %w", err)
	}

	if fresh.AccessToken != stored.AccessToken {
		if err := SaveToken(p.path, fresh); err != nil {
			p.logger.Warn("failed to persist refreshed token", logging.Err(err))
		} else {
			p.logger.Debug("refreshed token persisted", slog.String("token", logging.SanitizeToken(fresh.AccessToken)))
		}
	}
	return fresh, nil
}

func (p *FileTokenProvider) authorize(ctx context.Context) (*oauth2.Token, error) {
	if p.prompt == nil {
		return nil, errors.New("interactive authorization is not available")
	}

	code, err := p.prompt(ctx, p.config.AuthCodeURL("state", oauth2.AccessTypeOffline))
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrConsentDenied
	}

	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	if err := SaveToken(p.path, tok); err != nil {
		return nil, err
	}
	p.logger.Info("google authorization stored")
	return tok, nil
}

// StaticTokenProvider always returns the same token. It is used when an access
// token is supplied through the environment.
type StaticTokenProvider struct {
	token *oauth2.Token
}

// NewStaticTokenProvider creates a provider for a fixed access token.
func NewStaticTokenProvider(accessToken string) *StaticTokenProvider {
	if accessToken == "" {
		return &StaticTokenProvider{}
	}
	return &StaticTokenProvider{token: &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}}
}

// Token returns the fixed token, or an AuthError when none was configured.
func (p *StaticTokenProvider) Token(_ context.Context, _ bool) (*oauth2.Token, error) {
	if p.token == nil {
		return nil, &AuthError{Err: ErrNoToken}
	}
	return p.token, nil
}

// NewHTTPClient obtains a token from provider and returns an HTTP client that
// sends it with every request.
func NewHTTPClient(ctx context.Context, provider TokenProvider, interactive bool) (*http.Client, error) {
	tok, err := provider.Token(ctx, interactive)
	if err != nil {
		if !IsAuthError(err) {
			err = &AuthError{Err: err}
		}
		return nil, err
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok)), nil
}
