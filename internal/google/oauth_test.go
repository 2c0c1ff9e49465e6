package google

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountName(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAccountName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileTokenProvider_TokenPath(t *testing.T) {
	p := NewFileTokenProvider("/tmp/tokens")
	assert.Equal(t, filepath.Join("/tmp/tokens", "google-work.token"), p.TokenPath("work"))
}

func TestFileTokenProvider_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	p := NewFileTokenProvider(dir)

	assert.False(t, p.HasTokenForAccount("work"))

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, p.SaveToken("work", &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}))
	assert.True(t, p.HasTokenForAccount("work"))

	info, err := os.Stat(p.TokenPath("work"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err := p.GetTokenForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, expiry.Equal(token.Expiry))
}

func TestFileTokenProvider_Missing(t *testing.T) {
	p := NewFileTokenProvider(t.TempDir())

	_, err := p.GetTokenForAccount(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNoToken)
}

func TestFileTokenProvider_InvalidAccount(t *testing.T) {
	p := NewFileTokenProvider(t.TempDir())

	assert.False(t, p.HasTokenForAccount("invalid account"))
	assert.False(t, p.HasTokenForAccount(""))

	_, err := p.GetTokenForAccount(context.Background(), "../etc")
	require.Error(t, err)
	assert.Error(t, p.SaveToken("a/b", &oauth2.Token{AccessToken: "x"}))
}

func TestFileTokenProvider_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	p := NewFileTokenProvider(dir)
	require.NoError(t, os.WriteFile(p.TokenPath("work"), []byte("not json"), 0o600))

	_, err := p.GetTokenForAccount(context.Background(), "work")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)

	require.NoError(t, os.WriteFile(p.TokenPath("work"), []byte("{}"), 0o600))
	_, err = p.GetTokenForAccount(context.Background(), "work")
	require.ErrorIs(t, err, ErrNoToken)
}

func TestNewFileTokenProvider_DefaultDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/var/cache/test")
	p := NewFileTokenProvider("")
	assert.Equal(t, filepath.Join("/var/cache/test", "calresolve", "google-default.token"), p.TokenPath(DefaultAccount))
}

func TestAuthenticationErrorMessage(t *testing.T) {
	for _, account := range []string{"default", "work", "personal"} {
		t.Run(account, func(t *testing.T) {
			msg := AuthenticationErrorMessage(account)
			assert.Contains(t, msg, account)
			assert.Contains(t, msg, "OAuth")
		})
	}
}

func TestOAuthConfig(t *testing.T) {
	conf := OAuthConfig("id", "secret")
	assert.Equal(t, "id", conf.ClientID)
	assert.Equal(t, "secret", conf.ClientSecret)
	assert.Contains(t, conf.Scopes, "https://www.googleapis.com/auth/calendar")
}

func TestNewHTTPClient_ForcesHTTP1(t *testing.T) {
	client := NewHTTPClient(context.Background(), OAuthConfig("id", "secret"), &oauth2.Token{AccessToken: "x"})
	transport, ok := client.Transport.(*oauth2.Transport)
	require.True(t, ok)
	base, ok := transport.Base.(*http.Transport)
	require.True(t, ok)
	assert.False(t, base.ForceAttemptHTTP2)
}
