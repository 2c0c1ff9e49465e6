package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const appName = "calresolve"

// DefaultAccount is used when a caller does not name an account.
const DefaultAccount = "default"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateAccountName rejects names that cannot be used as a token file name.
func ValidateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// OAuthConfig returns the OAuth2 configuration used to refresh stored tokens.
func OAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       DefaultOAuthScopes,
	}
}

// NewHTTPClient returns an HTTP client that authenticates with token and
// refreshes it through conf.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewHTTPClient(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) *http.Client {
	client := conf.Client(ctx, token)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client
}

// AuthenticationErrorMessage explains to an operator how to provide a token
// for account.
func AuthenticationErrorMessage(account string) string {
	return fmt.Sprintf(
		"No Google OAuth token found for account %q. Obtain a token with the calendar scope "+
			"and import it with 'calresolve token import --account %s --file <token.json>'.",
		account, account)
}

// DefaultTokenDir is where tokens are stored when no directory is configured.
func DefaultTokenDir() string {
	return filepath.Join(userCacheDir(), appName)
}

func userCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
