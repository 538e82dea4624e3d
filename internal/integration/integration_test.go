// ABOUTME: End-to-end test wiring the full gateway: OAuth, bearer gate, MCP transport
// ABOUTME: Walks register, consent, token exchange, initialize, and teardown

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio-labs/folio-gateway/internal/auth"
	"github.com/folio-labs/folio-gateway/internal/mcp"
	"github.com/folio-labs/folio-gateway/internal/oauth"
	"github.com/folio-labs/folio-gateway/internal/store"
	"github.com/folio-labs/folio-gateway/internal/tools"
)

const (
	issuer   = "https://gateway.example"
	loginURL = "https://cms.example/login"
)

type gateway struct {
	mux      *http.ServeMux
	store    *store.SQLiteStore
	verifier *auth.JWTVerifier
}

// newGateway assembles the components the way the serve command does.
func newGateway(t *testing.T) *gateway {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	verifier := auth.NewJWTVerifier([]byte("integration-secret"))

	oauthServer, err := oauth.NewServer(oauth.Config{
		Store:    st,
		Issuer:   issuer,
		LoginURL: loginURL,
		Verifier: verifier,
		CodeTTL:  10 * time.Minute,
		TokenTTL: time.Hour,
	})
	require.NoError(t, err)

	registry := tools.NewRegistry(nil)
	require.NoError(t, registry.RegisterAll(tools.ContentPack(st)))

	mcpServer, err := mcp.NewServer(mcp.Config{
		Sessions:   st,
		Tools:      registry,
		SessionTTL: 24 * time.Hour,
		ServerName: "folio-gateway",
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	oauthServer.RegisterRoutes(mux)
	bearer := auth.BearerMiddleware(st, issuer+"/mcp", nil)
	mux.Handle("/mcp", bearer(mcpServer))

	return &gateway{mux: mux, store: st, verifier: verifier}
}

func (g *gateway) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.mux.ServeHTTP(rec, req)
	return rec
}

func (g *gateway) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return g.do(req)
}

func TestFullFlow(t *testing.T) {
	g := newGateway(t)

	// Register a client.
	rec := g.do(httptest.NewRequest(http.MethodPost, "/oauth/register",
		strings.NewReader(`{"client_name":"T","redirect_uris":["https://a.example/cb"]}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var registration struct {
		ClientID string `json:"client_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registration))
	require.NotEmpty(t, registration.ClientID)

	// Log in and approve the consent form.
	assertion, err := g.verifier.Generate("editor-1", time.Hour)
	require.NoError(t, err)
	identity := &http.Cookie{Name: "folio_identity", Value: assertion}

	codeVerifier := "full-flow-code-verifier-0123456789abcdefgh"
	consent := url.Values{}
	consent.Set("client_id", registration.ClientID)
	consent.Set("redirect_uri", "https://a.example/cb")
	consent.Set("response_type", "code")
	consent.Set("code_challenge", oauth.ChallengeS256(codeVerifier))
	consent.Set("code_challenge_method", "S256")
	consent.Set("state", "e2e")
	consent.Set("action", "approve")

	rec = g.postForm("/oauth/authorize", consent, identity)
	require.Equal(t, http.StatusFound, rec.Code)
	redirect, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	code := redirect.Query().Get("code")
	require.NotEmpty(t, code)
	require.Equal(t, "e2e", redirect.Query().Get("state"))

	// Exchange the code for a token.
	exchange := url.Values{}
	exchange.Set("grant_type", "authorization_code")
	exchange.Set("code", code)
	exchange.Set("redirect_uri", "https://a.example/cb")
	exchange.Set("client_id", registration.ClientID)
	exchange.Set("code_verifier", codeVerifier)

	rec = g.postForm("/oauth/token", exchange)
	require.Equal(t, http.StatusOK, rec.Code)

	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(t, token.AccessToken)

	// Initialize over the transport.
	req := httptest.NewRequest(http.MethodPost, "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	rec = g.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var initMsg mcp.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initMsg))
	require.Nil(t, initMsg.Error)
	require.NotEmpty(t, initMsg.Result)

	sessionID := rec.Header().Get(mcp.SessionHeaderName)
	require.NotEmpty(t, sessionID)

	// An unknown method is a -32601, not a transport failure.
	req = httptest.NewRequest(http.MethodPost, "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":2,"method":"unknown_method"}`))
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	rec = g.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var errMsg mcp.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errMsg))
	require.NotNil(t, errMsg.Error)
	assert.Equal(t, mcp.CodeMethodNotFound, errMsg.Error.Code)

	// Create content through the tool pack, then read it back directly.
	req = httptest.NewRequest(http.MethodPost, "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"content_create","arguments":{"type":"post","title":"Launch Notes","status":"published"}}}`))
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	rec = g.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var callMsg mcp.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &callMsg))
	require.Nil(t, callMsg.Error)

	objects, err := g.store.ListContent(req.Context(), "post", "published", 10)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "Launch Notes", objects[0].Title)

	// Terminate the session; a repeat is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.AddCookie(&http.Cookie{Name: mcp.SessionCookieName, Value: sessionID})
	rec = g.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.AddCookie(&http.Cookie{Name: mcp.SessionCookieName, Value: sessionID})
	rec = g.do(req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTransportWithoutToken(t *testing.T) {
	g := newGateway(t)

	rec := g.do(httptest.NewRequest(http.MethodPost, "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestTransportGETBeforeAuth(t *testing.T) {
	g := newGateway(t)

	// No token at all: GET must still be a 405, never a challenge.
	rec := g.do(httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
}
