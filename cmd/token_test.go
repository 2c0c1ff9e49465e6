package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calresolve/internal/google"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportToken(t *testing.T) {
	dir := t.TempDir()
	provider := google.NewFileTokenProvider(filepath.Join(dir, "tokens"))
	path := writeFile(t, dir, "token.json", `{"access_token":"ya29.abc","refresh_token":"1//xyz","token_type":"Bearer"}`)

	require.NoError(t, importToken(provider, "work", path))

	assert.True(t, provider.HasTokenForAccount("work"))
	token, err := provider.GetTokenForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "1//xyz", token.RefreshToken)
}

func TestImportToken_Errors(t *testing.T) {
	dir := t.TempDir()
	provider := google.NewFileTokenProvider(dir)

	tests := []struct {
		name    string
		account string
		path    string
		wantErr string
	}{
		{
			name:    "invalid account",
			account: "../etc",
			path:    writeFile(t, dir, "ok.json", `{"access_token":"a"}`),
			wantErr: "invalid account name",
		},
		{
			name:    "missing file",
			account: "work",
			path:    filepath.Join(dir, "missing.json"),
			wantErr: "failed to read token file",
		},
		{
			name:    "not json",
			account: "work",
			path:    writeFile(t, dir, "bad.json", `not json`),
			wantErr: "failed to parse token file",
		},
		{
			name:    "empty token",
			account: "work",
			path:    writeFile(t, dir, "empty.json", `{"token_type":"Bearer"}`),
			wantErr: "neither an access nor a refresh token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := importToken(provider, tt.account, tt.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, provider.HasTokenForAccount(tt.account))
		})
	}
}
