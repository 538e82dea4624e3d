// ABOUTME: Dynamic client registration endpoint (RFC 7591 subset)
// ABOUTME: Returns the plaintext client secret exactly once for confidential clients

package oauth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRegistrationBodySize bounds registration request bodies (64KB).
const maxRegistrationBodySize = 64 << 10

// registrationRequest is the accepted subset of RFC 7591 client metadata.
type registrationRequest struct {
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// registrationResponse is the issued client metadata.
type registrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// handleRegister processes dynamic client registrations.
// token_endpoint_auth_method defaults to "none" (public client);
// "client_secret_post" registers a confidential client and returns the
// generated secret in the response, the only time it is ever disclosed.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRegistrationBodySize))
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "failed to read request body")
		return
	}

	var req registrationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON")
		return
	}

	if req.ClientName == "" {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidClientMeta, "client_name is required")
		return
	}

	var confidential bool
	switch req.TokenEndpointAuthMethod {
	case "", "none":
		confidential = false
	case "client_secret_post", "client_secret_basic":
		confidential = true
	default:
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidClientMeta, "unsupported token_endpoint_auth_method")
		return
	}

	client, secret, err := s.registry.Register(r.Context(), req.ClientName, req.RedirectURIs, confidential)
	if err != nil {
		if errors.Is(err, ErrInvalidRedirectURI) || errors.Is(err, ErrNoRedirectURIs) {
			writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidRedirectURI, err.Error())
			return
		}
		s.logger.Error("registering client", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, ErrCodeServerError, "registration failed")
		return
	}

	authMethod := "none"
	if confidential {
		authMethod = "client_secret_post"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(registrationResponse{
		ClientID:                client.ID,
		ClientSecret:            secret,
		ClientIDIssuedAt:        client.CreatedAt.Unix(),
		ClientName:              client.Name,
		RedirectURIs:            client.RedirectURIs,
		GrantTypes:              []string{"authorization_code"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: authMethod,
	})
}
