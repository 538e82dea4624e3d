// ABOUTME: OAuth 2.1 authorization server for the MCP gateway
// ABOUTME: Wires registration, authorization, token, and discovery routes

package oauth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/folio-labs/folio-gateway/internal/auth"
	"github.com/folio-labs/folio-gateway/internal/store"
)

// Config holds configuration for the authorization server.
type Config struct {
	Store store.CredentialStore
	// Issuer is the externally visible base URL of the gateway, without a
	// trailing slash. It names the authorization server in discovery
	// documents and the protected resource in challenges.
	Issuer string
	// LoginURL is the host CMS login page. Unauthenticated consent requests
	// are redirected there with a redirect_to parameter.
	LoginURL string
	// IdentityCookie is the name of the cookie carrying the login assertion.
	IdentityCookie string
	// Verifier validates login assertions minted by the host login flow.
	Verifier auth.LoginVerifier

	CodeTTL  time.Duration
	TokenTTL time.Duration

	Logger *slog.Logger
}

// Server implements the bundled OAuth 2.1 authorization server: dynamic
// client registration, the authorization (consent) endpoint, the token
// endpoint, and the discovery documents.
type Server struct {
	store          store.CredentialStore
	registry       *Registry
	issuer         string
	loginURL       string
	identityCookie string
	verifier       auth.LoginVerifier
	codeTTL        time.Duration
	tokenTTL       time.Duration
	logger         *slog.Logger
}

// NewServer creates a new authorization server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("login verifier is required")
	}
	if cfg.LoginURL == "" {
		return nil, errors.New("login URL is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "oauth")
	}

	codeTTL := cfg.CodeTTL
	if codeTTL == 0 {
		codeTTL = 10 * time.Minute
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL == 0 {
		tokenTTL = time.Hour
	}

	identityCookie := cfg.IdentityCookie
	if identityCookie == "" {
		identityCookie = "folio_identity"
	}

	return &Server{
		store:          cfg.Store,
		registry:       NewRegistry(cfg.Store, logger),
		issuer:         cfg.Issuer,
		loginURL:       cfg.LoginURL,
		identityCookie: identityCookie,
		verifier:       cfg.Verifier,
		codeTTL:        codeTTL,
		tokenTTL:       tokenTTL,
		logger:         logger,
	}, nil
}

// Registry exposes the client registry for other components.
func (s *Server) Registry() *Registry {
	return s.registry
}

// RegisterRoutes registers the OAuth endpoints on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/oauth/authorize", s.handleAuthorize)
	mux.HandleFunc("/oauth/token", s.handleToken)
	mux.HandleFunc("/oauth/register", s.handleRegister)
	mux.HandleFunc("/.well-known/oauth-authorization-server", s.handleAuthServerMetadata)
	mux.HandleFunc("/.well-known/oauth-protected-resource", s.handleProtectedResourceMetadata)
}

// currentUser resolves the consenting user from the identity cookie.
// Returns an empty string when no valid assertion is present.
func (s *Server) currentUser(r *http.Request) string {
	cookie, err := r.Cookie(s.identityCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	userID, err := s.verifier.Verify(cookie.Value)
	if err != nil {
		s.logger.Debug("rejected identity assertion", "error", err)
		return ""
	}
	return userID
}
