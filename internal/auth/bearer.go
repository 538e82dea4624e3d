// ABOUTME: HTTP middleware for bearer token authentication on the MCP transport
// ABOUTME: Resolves opaque tokens via the credential store and attaches Identity to context

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/folio-labs/folio-gateway/internal/store"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// BearerMiddleware creates an HTTP middleware that validates opaque bearer
// tokens against the credential store. On success the resolved Identity is
// attached to the request context; downstream handlers never look identity up
// again. Missing, unknown, and expired tokens all get 401 with a
// WWW-Authenticate challenge naming the protected resource.
//
// GET requests pass through unauthenticated: the transport rejects GET with
// 405 regardless, and a method that is never served must not trigger an
// authentication challenge.
func BearerMiddleware(tokens store.CredentialStore, resource string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				challenge(w, resource, errMsg)
				return
			}

			at, err := tokens.GetAccessToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					logger.Error("token lookup failed", "error", err)
					writeJSONError(w, http.StatusInternalServerError, "server_error", "token lookup failed")
					return
				}
				// Expired tokens are already absent at the store layer; the
				// caller gets the same answer either way.
				challenge(w, resource, "invalid or expired token")
				return
			}

			id := &Identity{
				UserID:   at.UserID,
				ClientID: at.ClientID,
				Scope:    at.Scope,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// challenge sends a 401 with a WWW-Authenticate header per RFC 6750.
func challenge(w http.ResponseWriter, resource, description string) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf("Bearer realm=%q", resource))
	writeJSONError(w, http.StatusUnauthorized, "invalid_token", description)
}

// writeJSONError writes a machine-readable error body.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
