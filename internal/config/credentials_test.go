package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const installedSecrets = `{
  "installed": {
    "client_id": "1234.apps.googleusercontent.com",
    "client_secret": "GOCSPX-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestFileSourceParsesInstalledSecrets(t *testing.T) {
	path := writeFile(t, t.TempDir(), CredentialsFileName, installedSecrets)

	creds, err := FileSource{Label: "packaged", Path: path}.Load()
	require.NoError(t, err)
	assert.Equal(t, "1234.apps.googleusercontent.com", creds.ClientID)
	assert.Equal(t, "GOCSPX-secret", creds.ClientSecret)
	assert.Equal(t, "http://localhost", creds.RedirectURI)
	assert.Equal(t, "https://oauth2.googleapis.com/token", creds.TokenURL)
	assert.Equal(t, "packaged", creds.Source)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}.Load()
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestResolveFirstSourceWins(t *testing.T) {
	packaged := t.TempDir()
	userData := t.TempDir()
	writeFile(t, userData, CredentialsFileName, `{"installed":{"client_id":"user-data-id","client_secret":"s"}}`)
	writeFile(t, packaged, CredentialsFileName, `{"installed":{"client_id":"packaged-id","client_secret":"s"}}`)

	creds := ResolveCredentials(
		FileSource{Label: "packaged", Path: filepath.Join(packaged, CredentialsFileName)},
		FileSource{Label: "user data", Path: filepath.Join(userData, CredentialsFileName)},
		EnvSource{LookupEnv: noEnv},
	)
	assert.Equal(t, "packaged-id", creds.ClientID)
	assert.Equal(t, DefaultRedirectURI, creds.RedirectURI)
}

func TestResolveSkipsMissingAndBrokenSources(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.json", "{not json")
	userData := writeFile(t, dir, CredentialsFileName, `{"web":{"client_id":"web-id","client_secret":"s","redirect_uris":["http://127.0.0.1:9000/callback"]}}`)

	creds := ResolveCredentials(
		FileSource{Path: filepath.Join(dir, "missing.json")},
		FileSource{Path: broken},
		FileSource{Path: userData},
		EnvSource{LookupEnv: noEnv},
	)
	assert.Equal(t, "web-id", creds.ClientID)
	assert.Equal(t, "http://127.0.0.1:9000/callback", creds.RedirectURI)
}

func TestResolveFallsBackToEnvironment(t *testing.T) {
	env := map[string]string{
		"GOOGLE_CLIENT_ID":     "env-id",
		"GOOGLE_CLIENT_SECRET": "env-secret",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	creds := ResolveCredentials(
		FileSource{Path: filepath.Join(t.TempDir(), "missing.json")},
		EnvSource{LookupEnv: lookup},
	)
	assert.Equal(t, "env-id", creds.ClientID)
	assert.Equal(t, "env-secret", creds.ClientSecret)
	assert.Equal(t, "environment", creds.Source)
	assert.False(t, creds.IsPlaceholder())
}

func TestResolvePlaceholdersWhenNothingConfigured(t *testing.T) {
	creds := ResolveCredentials(EnvSource{LookupEnv: noEnv})
	assert.True(t, creds.IsPlaceholder())
	assert.Equal(t, placeholderClientSecret, creds.ClientSecret)

	// No sources at all still yields usable placeholders
	t.Setenv("GOOGLE_CLIENT_ID", "")
	assert.True(t, ResolveCredentials().IsPlaceholder())
}

func TestDefaultCredentialSourcesOrder(t *testing.T) {
	sources := DefaultCredentialSources("/data")
	require.NotEmpty(t, sources)

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	assert.Equal(t, "environment", names[len(names)-1])
	assert.Contains(t, names, "user data")
}
