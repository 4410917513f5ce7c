package drive

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// DefaultRootFolderName is the invoices root folder looked up in the user's
// Drive when no override is configured.
const DefaultRootFolderName = "Invoices"

// Config holds the OAuth application credentials and store settings shared
// by every per-user store the factory creates.
type Config struct {
	// ClientID and ClientSecret identify the OAuth application.
	ClientID     string
	ClientSecret string

	// RootFolderName is the invoices root folder name. Empty selects the
	// default.
	RootFolderName string

	// RateLimit tunes the per-store API rate limiter. Zero values select
	// conservative defaults.
	RateLimit RateLimitConfig
}

// Factory builds Drive-backed remote stores scoped to one user's refresh
// token. Refresh tokens are used in memory only, never persisted.
type Factory struct {
	cfg Config
}

var _ driven.RemoteStoreFactory = (*Factory)(nil)

// NewFactory creates the store factory.
func NewFactory(cfg Config) *Factory {
	if cfg.RootFolderName == "" {
		cfg.RootFolderName = DefaultRootFolderName
	}
	return &Factory{cfg: cfg}
}

// Create builds a RemoteStore for one user's credential. The returned store
// refreshes access tokens on demand via the oauth2 token source.
func (f *Factory) Create(ctx context.Context, cred domain.Credential) (driven.RemoteStore, error) {
	if !cred.Valid() {
		return nil, domain.ErrCredentialMissing
	}
	if f.cfg.ClientID == "" || f.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("drive: oauth client not configured: %w", domain.ErrCredentialMissing)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     f.cfg.ClientID,
		ClientSecret: f.cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})

	service, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("drive: creating service: %w", err)
	}

	return &Store{
		service:  service,
		limiter:  NewRateLimiter(f.cfg.RateLimit),
		rootName: f.cfg.RootFolderName,
	}, nil
}
