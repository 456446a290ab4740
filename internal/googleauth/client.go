package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/inknote/backend/internal/config"
)

var ErrInvalidToken = errors.New("invalid google token")

// Identity is a verified assertion from the identity provider.
type Identity struct {
	Subject       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// Client verifies Google ID tokens against the issuer's published keys.
// Issuer discovery needs a network round trip, so the underlying verifier is
// built lazily on first use and shared by all callers afterwards.
type Client struct {
	cfg        config.GoogleConfig
	httpClient *http.Client

	mu       sync.Mutex
	verifier *oidc.IDTokenVerifier
}

func NewClient(cfg config.GoogleConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *Client) getVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.verifier != nil {
		return c.verifier, nil
	}

	ctx = oidc.ClientContext(ctx, c.httpClient)
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, c.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}

	c.verifier = provider.Verifier(&oidc.Config{ClientID: c.cfg.ClientID})

	return c.verifier, nil
}

func (c *Client) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	verifier, err := c.getVerifier(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %s", ErrInvalidToken, err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}

	return &Identity{
		Subject:       idToken.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}

var _ Verifier = (*Client)(nil)
