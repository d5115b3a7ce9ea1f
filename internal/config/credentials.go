package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/connerkward/every-time/internal/logger"
)

const (
	// CredentialsFileName is looked up beside the executable and in the data directory.
	CredentialsFileName = "credentials.json"

	// DefaultRedirectURI is used when a client secrets file lists no redirect URIs.
	DefaultRedirectURI = "http://localhost"

	placeholderClientID     = "your-client-id"
	placeholderClientSecret = "your-client-secret"
)

// ErrSourceMissing reports that a credential source has nothing to offer.
// It is not a failure: resolution moves on to the next source.
var ErrSourceMissing = errors.New("credential source not present")

// Credentials identify this installation to the OAuth provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Source       string
}

// IsPlaceholder reports whether no real client id was found anywhere.
func (c Credentials) IsPlaceholder() bool {
	return c.ClientID == "" || c.ClientID == placeholderClientID
}

// CredentialSource is one layer of the credential lookup.
type CredentialSource interface {
	Name() string
	Load() (*Credentials, error)
}

// ClientSecrets represents Google's downloadable OAuth client JSON. Desktop
// clients use the "installed" section, web clients the "web" one.
type ClientSecrets struct {
	Installed *clientSection `json:"installed"`
	Web       *clientSection `json:"web"`
}

type clientSection struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
}

// FileSource reads a client secrets file.
type FileSource struct {
	Label string
	Path  string
}

func (s FileSource) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Path
}

func (s FileSource) Load() (*Credentials, error) {
	if s.Path == "" {
		return nil, ErrSourceMissing
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSourceMissing
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	var secrets ClientSecrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.Path, err)
	}

	section := secrets.Installed
	if section == nil {
		section = secrets.Web
	}
	if section == nil || section.ClientID == "" {
		return nil, fmt.Errorf("%s has no client_id", s.Path)
	}

	redirect := DefaultRedirectURI
	if len(section.RedirectURIs) > 0 && section.RedirectURIs[0] != "" {
		redirect = section.RedirectURIs[0]
	}

	return &Credentials{
		ClientID:     section.ClientID,
		ClientSecret: section.ClientSecret,
		RedirectURI:  redirect,
		AuthURL:      section.AuthURI,
		TokenURL:     section.TokenURI,
		Source:       s.Name(),
	}, nil
}

// EnvSource reads GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET. It never fails:
// missing variables become placeholders so startup can continue and the
// user gets a clear OAuth error later instead of a crash now.
type EnvSource struct {
	LookupEnv func(string) (string, bool)
}

func (s EnvSource) Name() string {
	return "environment"
}

func (s EnvSource) Load() (*Credentials, error) {
	lookup := s.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	return &Credentials{
		ClientID:     get("GOOGLE_CLIENT_ID", placeholderClientID),
		ClientSecret: get("GOOGLE_CLIENT_SECRET", placeholderClientSecret),
		RedirectURI:  get("GOOGLE_REDIRECT_URI", DefaultRedirectURI),
		Source:       s.Name(),
	}, nil
}

// DefaultCredentialSources returns the lookup order: packaged file beside
// the executable, user data directory file, then the environment.
func DefaultCredentialSources(dataDir string) []CredentialSource {
	var sources []CredentialSource

	if exe, err := os.Executable(); err == nil {
		sources = append(sources, FileSource{
			Label: "packaged",
			Path:  filepath.Join(filepath.Dir(exe), CredentialsFileName),
		})
	}
	if dataDir != "" {
		sources = append(sources, FileSource{
			Label: "user data",
			Path:  filepath.Join(dataDir, CredentialsFileName),
		})
	}

	return append(sources, EnvSource{})
}

// ResolveCredentials tries each source in order and returns the first that
// loads. Broken sources are logged and skipped. When every source fails the
// environment placeholders are returned.
func ResolveCredentials(sources ...CredentialSource) Credentials {
	for _, source := range sources {
		creds, err := source.Load()
		if err != nil {
			if !errors.Is(err, ErrSourceMissing) {
				logger.Warn("skipping credential source", "source", source.Name(), "error", err)
			}
			continue
		}
		logger.Debug("loaded OAuth credentials", "source", source.Name())
		return *creds
	}

	creds, _ := EnvSource{}.Load()
	return *creds
}
