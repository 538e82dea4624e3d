// ABOUTME: OAuth error types and response helpers
// ABOUTME: Distinguishes redirectable consent errors from direct error responses

package oauth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Standard OAuth error codes used by this server
const (
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeInvalidClient        = "invalid_client"
	ErrCodeInvalidGrant         = "invalid_grant"
	ErrCodeUnsupportedGrant     = "unsupported_grant_type"
	ErrCodeUnsupportedResponse  = "unsupported_response_type"
	ErrCodeAccessDenied         = "access_denied"
	ErrCodeServerError          = "server_error"
	ErrCodeInvalidClientMeta    = "invalid_client_metadata"
	ErrCodeInvalidRedirectURI   = "invalid_redirect_uri"
)

// authorizeError is a validation failure on the authorization endpoint.
// RedirectURI is set only once the redirect target itself has been validated
// against the registered client; before that point errors are reported
// directly so the endpoint never becomes an open redirector.
type authorizeError struct {
	Code        string
	Description string
	State       string
	RedirectURI *url.URL // nil = respond directly, never redirect
}

func (e *authorizeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// directError reports a failure straight to the caller without redirecting.
func directError(code, description string) *authorizeError {
	return &authorizeError{Code: code, Description: description}
}

// redirectError reports a failure by redirecting to the validated redirect URI.
func redirectError(redirectURI *url.URL, code, description, state string) *authorizeError {
	return &authorizeError{Code: code, Description: description, State: state, RedirectURI: redirectURI}
}

// writeAuthorizeError renders an authorizeError: a 302 carrying error
// parameters when a validated redirect target exists, a direct 400 otherwise.
func writeAuthorizeError(w http.ResponseWriter, r *http.Request, aerr *authorizeError) {
	if aerr.RedirectURI != nil {
		redirect := *aerr.RedirectURI
		query := redirect.Query()
		query.Set("error", aerr.Code)
		if aerr.Description != "" {
			query.Set("error_description", aerr.Description)
		}
		if aerr.State != "" {
			query.Set("state", aerr.State)
		}
		redirect.RawQuery = query.Encode()
		http.Redirect(w, r, redirect.String(), http.StatusFound)
		return
	}

	writeOAuthError(w, http.StatusBadRequest, aerr.Code, aerr.Description)
}

// writeOAuthError writes a JSON error body in the standard OAuth shape.
func writeOAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
