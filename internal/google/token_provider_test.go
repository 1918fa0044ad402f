package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTokenServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","refresh_token":"new-refresh","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{AuthURL: "https://accounts.example.com/auth", TokenURL: tokenURL},
		RedirectURL:  oobRedirectURL,
	}
}

func TestFileTokenProvider_ValidStoredToken(t *testing.T) {
	srv, calls := newTokenServer(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "google.token")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken: "stored",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}))

	p := NewFileTokenProvider(testConfig(srv.URL), path)
	tok, err := p.Token(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, "stored", tok.AccessToken)
	assert.Equal(t, int32(0), calls.Load(), "valid token must not hit the token endpoint")
}

func TestFileTokenProvider_RefreshesExpiredToken(t *testing.T) {
	srv, calls := newTokenServer(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "google.token")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	p := NewFileTokenProvider(testConfig(srv.URL), path)
	tok, err := p.Token(context.Background(), false)

	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Equal(t, int32(1), calls.Load())

	persisted, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "new-access", persisted.AccessToken)
}

func TestFileTokenProvider_NonInteractiveWithoutToken(t *testing.T) {
	prompted := false
	p := NewFileTokenProvider(testConfig("http://127.0.0.1:1/token"), filepath.Join(t.TempDir(), "google.token"),
		WithPrompter(func(context.Context, string) (string, error) {
			prompted = true
			return "code", nil
		}))

	_, err := p.Token(context.Background(), false)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.False(t, prompted, "non-interactive requests must not prompt")
}

func TestFileTokenProvider_InteractiveExchange(t *testing.T) {
	srv, _ := newTokenServer(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "google.token")

	var shownURL string
	p := NewFileTokenProvider(testConfig(srv.URL), path,
		WithPrompter(func(_ context.Context, authURL string) (string, error) {
			shownURL = authURL
			return "  the-code \n", nil
		}))

	tok, err := p.Token(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, "new-access", tok.AccessToken)
	assert.Contains(t, shownURL, "access_type=offline")
	assert.True(t, HasToken(path))
}

func TestFileTokenProvider_InteractiveFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		prompt  AuthCodePrompter
		wantErr error
	}{
		{
			name:    "consent denied",
			status:  http.StatusOK,
			prompt:  func(context.Context, string) (string, error) { return "", nil },
			wantErr: ErrConsentDenied,
		},
		{
			name:   "prompt fails",
			status: http.StatusOK,
			prompt: func(context.Context, string) (string, error) { return "", errors.New("stdin closed") },
		},
		{
			name:   "exchange rejected",
			status: http.StatusBadRequest,
			prompt: func(context.Context, string) (string, error) { return "code", nil },
		},
		{
			name:   "no prompter",
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTokenServer(t, tt.status)
			var opts []FileTokenProviderOption
			if tt.prompt != nil {
				opts = append(opts, WithPrompter(tt.prompt))
			}
			p := NewFileTokenProvider(testConfig(srv.URL), filepath.Join(t.TempDir(), "google.token"), opts...)

			_, err := p.Token(context.Background(), true)

			require.Error(t, err)
			assert.True(t, IsAuthError(err))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStaticTokenProvider(t *testing.T) {
	tok, err := NewStaticTokenProvider("abc").Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.AccessToken)

	_, err = NewStaticTokenProvider("").Token(context.Background(), true)
	assert.True(t, IsAuthError(err))
}

func TestNewHTTPClient_SendsBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client, err := NewHTTPClient(context.Background(), NewStaticTokenProvider("abc"), false)
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "Bearer abc", got)

	_, err = NewHTTPClient(context.Background(), NewStaticTokenProvider(""), false)
	assert.True(t, IsAuthError(err))
}
