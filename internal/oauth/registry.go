// ABOUTME: OAuth client registration and validation built atop the credential store
// ABOUTME: Enforces https-or-loopback redirect URIs and exact-match URI validation

package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/folio-labs/folio-gateway/internal/store"
)

// Registration errors
var (
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")
	ErrNoRedirectURIs     = errors.New("at least one redirect URI is required")
)

// Registry manages OAuth client registration and validation.
type Registry struct {
	clients store.CredentialStore
	logger  *slog.Logger
}

// NewRegistry creates a client registry backed by the given store.
func NewRegistry(clients store.CredentialStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default().With("component", "oauth")
	}
	return &Registry{clients: clients, logger: logger}
}

// Register creates a new client. For confidential clients a secret is
// generated and returned in plaintext exactly once; only its bcrypt hash is
// stored and the plaintext is unrecoverable thereafter.
func (r *Registry) Register(ctx context.Context, name string, redirectURIs []string, confidential bool) (*store.Client, string, error) {
	if len(redirectURIs) == 0 {
		return nil, "", ErrNoRedirectURIs
	}
	for _, uri := range redirectURIs {
		if err := validateRedirectURIFormat(uri); err != nil {
			return nil, "", fmt.Errorf("%w: %s", ErrInvalidRedirectURI, uri)
		}
	}

	clientID, err := generateSecureToken(24)
	if err != nil {
		return nil, "", fmt.Errorf("generating client ID: %w", err)
	}

	var secret, secretHash string
	if confidential {
		secret, err = generateSecureToken(32)
		if err != nil {
			return nil, "", fmt.Errorf("generating client secret: %w", err)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, "", fmt.Errorf("hashing client secret: %w", err)
		}
		secretHash = string(hash)
	}

	client := &store.Client{
		ID:           clientID,
		SecretHash:   secretHash,
		Name:         name,
		RedirectURIs: redirectURIs,
		Confidential: confidential,
		CreatedAt:    time.Now().UTC(),
	}

	if err := r.clients.CreateClient(ctx, client); err != nil {
		return nil, "", fmt.Errorf("storing client: %w", err)
	}

	r.logger.Info("registered client", "client_id", clientID, "name", name, "confidential", confidential)
	return client, secret, nil
}

// Validate looks up a client and checks its credentials. A client with a
// stored secret hash requires a matching secret; a public client is accepted
// only when no secret is presented.
func (r *Registry) Validate(ctx context.Context, clientID, secret string) (*store.Client, bool) {
	client, err := r.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, false
	}

	if client.SecretHash == "" {
		// Public client: presenting a secret for a client that has none is a
		// mismatch, not a bonus.
		return client, secret == ""
	}

	if secret == "" {
		return client, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)); err != nil {
		return client, false
	}
	return client, true
}

// ValidateRedirectURI checks a redirect URI against the client's registered
// set. The match is exact string equality: no normalization, no prefix or
// pattern matching, so `https://a.example/cb/` does not match
// `https://a.example/cb`.
func (r *Registry) ValidateRedirectURI(client *store.Client, uri string) bool {
	for _, registered := range client.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// validateRedirectURIFormat enforces the registration rules for redirect
// URIs: https anywhere, or http restricted to loopback hosts.
func validateRedirectURIFormat(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing URI: %w", err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return errors.New("redirect URI must be absolute")
	}

	switch parsed.Scheme {
	case "https":
		return nil
	case "http":
		host := parsed.Hostname()
		if host == "localhost" || host == "127.0.0.1" || host == "::1" {
			return nil
		}
		return errors.New("http redirect URIs are restricted to loopback hosts")
	default:
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
}

// generateSecureToken creates a cryptographically random base64url string
// from n bytes of entropy.
func generateSecureToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
