// ABOUTME: Authorization endpoint: consent rendering and one-time code issuance
// ABOUTME: Validates before redirecting so the endpoint never becomes an open redirector

package oauth

import (
	"net/http"
	"net/url"
	"time"

	"github.com/folio-labs/folio-gateway/internal/store"
)

// authorizeRequest holds the validated parameters of an authorization request.
type authorizeRequest struct {
	Client          *store.Client
	RedirectURI     *url.URL
	CodeChallenge   string
	ChallengeMethod string
	Scope           string
	State           string
}

// handleAuthorize drives the consent flow: GET shows the consent view (or
// bounces to login), POST records the decision.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleAuthorizeGet(w, r)
	case http.MethodPost:
		s.handleAuthorizePost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// validateAuthorizeParams validates the authorization parameters from the
// given value set (query on GET, form on POST; POST never trusts state
// carried only in the rendered form).
//
// Ordering matters: client_id and redirect_uri are checked first, and until
// both pass every failure is reported directly instead of redirected.
func (s *Server) validateAuthorizeParams(r *http.Request, values url.Values) (*authorizeRequest, *authorizeError) {
	clientID := values.Get("client_id")
	if clientID == "" {
		return nil, directError(ErrCodeInvalidRequest, "client_id is required")
	}

	client, err := s.store.GetClient(r.Context(), clientID)
	if err != nil {
		return nil, directError(ErrCodeInvalidClient, "unknown client")
	}

	redirectRaw := values.Get("redirect_uri")
	if redirectRaw == "" {
		return nil, directError(ErrCodeInvalidRequest, "redirect_uri is required")
	}
	if !s.registry.ValidateRedirectURI(client, redirectRaw) {
		// Unvalidated target: report directly, never redirect
		return nil, directError(ErrCodeInvalidRequest, "redirect_uri is not registered for this client")
	}
	redirectURI, err := url.Parse(redirectRaw)
	if err != nil {
		return nil, directError(ErrCodeInvalidRequest, "redirect_uri is not a valid URI")
	}

	state := values.Get("state")

	// From here on the redirect target is trusted and errors go back to it.
	if rt := values.Get("response_type"); rt != "code" {
		return nil, redirectError(redirectURI, ErrCodeUnsupportedResponse, "only the code response type is supported", state)
	}

	challenge := values.Get("code_challenge")
	if challenge == "" {
		return nil, redirectError(redirectURI, ErrCodeInvalidRequest, "code_challenge is required", state)
	}
	method := values.Get("code_challenge_method")
	if method == "" {
		// RFC 7636 default when the client omits the method
		method = ChallengeMethodPlain
	}
	if !ValidChallengeMethod(method) {
		return nil, redirectError(redirectURI, ErrCodeInvalidRequest, "unsupported code_challenge_method", state)
	}

	return &authorizeRequest{
		Client:          client,
		RedirectURI:     redirectURI,
		CodeChallenge:   challenge,
		ChallengeMethod: method,
		Scope:           values.Get("scope"),
		State:           state,
	}, nil
}

// handleAuthorizeGet validates the request and either renders the consent
// view or redirects an unauthenticated caller to the host login flow.
func (s *Server) handleAuthorizeGet(w http.ResponseWriter, r *http.Request) {
	req, aerr := s.validateAuthorizeParams(r, r.URL.Query())
	if aerr != nil {
		writeAuthorizeError(w, r, aerr)
		return
	}

	userID := s.currentUser(r)
	if userID == "" {
		s.redirectToLogin(w, r)
		return
	}

	s.renderConsent(w, req)
}

// handleAuthorizePost re-validates the submitted parameters and records the
// consent decision.
func (s *Server) handleAuthorizePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "unable to parse request body")
		return
	}

	req, aerr := s.validateAuthorizeParams(r, r.PostForm)
	if aerr != nil {
		writeAuthorizeError(w, r, aerr)
		return
	}

	userID := s.currentUser(r)
	if userID == "" {
		// The login session lapsed between rendering consent and submitting
		// it. Re-present the flow as a GET through the login redirect.
		s.redirectToLoginWithQuery(w, r, authorizeQuery(req))
		return
	}

	if r.PostForm.Get("action") != "approve" {
		writeAuthorizeError(w, r, redirectError(req.RedirectURI, ErrCodeAccessDenied, "the user denied the request", req.State))
		return
	}

	codeValue, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error("generating authorization code", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, ErrCodeServerError, "could not issue code")
		return
	}

	now := time.Now().UTC()
	code := &store.AuthorizationCode{
		Code:            codeValue,
		ClientID:        req.Client.ID,
		UserID:          userID,
		RedirectURI:     req.RedirectURI.String(),
		CodeChallenge:   req.CodeChallenge,
		ChallengeMethod: req.ChallengeMethod,
		Scope:           req.Scope,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.codeTTL),
	}
	if err := s.store.CreateAuthorizationCode(r.Context(), code); err != nil {
		s.logger.Error("storing authorization code", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, ErrCodeServerError, "could not issue code")
		return
	}

	s.logger.Info("issued authorization code", "client_id", req.Client.ID, "user_id", userID)

	redirect := *req.RedirectURI
	query := redirect.Query()
	query.Set("code", codeValue)
	if req.State != "" {
		query.Set("state", req.State)
	}
	redirect.RawQuery = query.Encode()
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

// redirectToLogin sends the browser to the host login flow with a return URL
// that re-presents the same authorization query.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	s.redirectToLoginWithQuery(w, r, r.URL.RawQuery)
}

func (s *Server) redirectToLoginWithQuery(w http.ResponseWriter, r *http.Request, rawQuery string) {
	login, err := url.Parse(s.loginURL)
	if err != nil {
		s.logger.Error("parsing login URL", "error", err)
		writeOAuthError(w, http.StatusInternalServerError, ErrCodeServerError, "login redirect misconfigured")
		return
	}

	returnTo := s.issuer + "/oauth/authorize"
	if rawQuery != "" {
		returnTo += "?" + rawQuery
	}

	query := login.Query()
	query.Set("redirect_to", returnTo)
	login.RawQuery = query.Encode()
	http.Redirect(w, r, login.String(), http.StatusFound)
}

// authorizeQuery rebuilds the authorization query string from validated
// parameters, for re-presenting a POSTed flow as a GET.
func authorizeQuery(req *authorizeRequest) string {
	values := url.Values{}
	values.Set("client_id", req.Client.ID)
	values.Set("redirect_uri", req.RedirectURI.String())
	values.Set("response_type", "code")
	values.Set("code_challenge", req.CodeChallenge)
	values.Set("code_challenge_method", req.ChallengeMethod)
	if req.Scope != "" {
		values.Set("scope", req.Scope)
	}
	if req.State != "" {
		values.Set("state", req.State)
	}
	return values.Encode()
}
