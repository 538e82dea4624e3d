// ABOUTME: Token endpoint: authorization-code-for-token exchange, PKCE-gated
// ABOUTME: Code consumption is atomic and all grant failures collapse to invalid_grant

package oauth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/folio-labs/folio-gateway/internal/store"
)

// tokenResponse is the success body of the token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// handleToken processes the authorization_code grant. Each step is a hard
// gate that fails closed; steps (4)-(6) deliberately share the same
// invalid_grant answer so a probing caller cannot tell which check failed.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unable to parse request body")
		return
	}

	// (1) grant type
	if gt := r.PostForm.Get("grant_type"); gt != "authorization_code" {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeUnsupportedGrant, "only authorization_code is supported")
		return
	}

	// (2) required parameters
	codeParam := r.PostForm.Get("code")
	redirectURI := r.PostForm.Get("redirect_uri")
	clientID := r.PostForm.Get("client_id")
	verifier := r.PostForm.Get("code_verifier")
	if codeParam == "" || redirectURI == "" || clientID == "" || verifier == "" {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "code, redirect_uri, client_id, and code_verifier are required")
		return
	}

	// (3) client credentials. Only client_secret_post is supported, so the
	// 401 carries no WWW-Authenticate challenge: there is no header-based
	// scheme to attempt.
	client, ok := s.registry.Validate(r.Context(), clientID, r.PostForm.Get("client_secret"))
	if !ok {
		writeOAuthError(w, http.StatusUnauthorized, ErrCodeInvalidClient, "client authentication failed")
		return
	}

	// (4) atomic fetch-and-delete of the code; expired and absent are the
	// same answer, and consuming an expired code is still a consume
	code, err := s.store.ConsumeAuthorizationCode(r.Context(), codeParam, client.ID)
	if err != nil {
		s.invalidGrant(w, "code not found or already used", clientID)
		return
	}
	if time.Now().UTC().After(code.ExpiresAt) {
		s.invalidGrant(w, "code expired", clientID)
		return
	}

	// (5) redirect URI must exactly equal the one bound at issuance
	if code.RedirectURI != redirectURI {
		s.invalidGrant(w, "redirect mismatch", clientID)
		return
	}

	// (6) PKCE
	if !VerifyPKCE(verifier, code.CodeChallenge, code.ChallengeMethod) {
		s.invalidGrant(w, "PKCE verification failed", clientID)
		return
	}

	// (7) mint and store the access token
	tokenValue, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error("generating access token", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, ErrCodeServerError, "could not issue token")
		return
	}

	now := time.Now().UTC()
	token := &store.AccessToken{
		Token:     tokenValue,
		ClientID:  client.ID,
		UserID:    code.UserID,
		Scope:     code.Scope,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}
	if err := s.store.CreateAccessToken(r.Context(), token); err != nil {
		s.logger.Error("storing access token", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, ErrCodeServerError, "could not issue token")
		return
	}

	s.logger.Info("issued access token", "client_id", client.ID, "user_id", code.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	_ = json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: tokenValue,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		Scope:       code.Scope,
	})
}

// invalidGrant answers a failed exchange. The reason is logged but never
// surfaced: the caller always sees the same generic invalid_grant.
func (s *Server) invalidGrant(w http.ResponseWriter, reason, clientID string) {
	s.logger.Warn("rejected token exchange", "client_id", clientID, "reason", reason)
	writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidGrant, "the authorization code is invalid or expired")
}
