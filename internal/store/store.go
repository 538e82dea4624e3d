// ABOUTME: Store interfaces and data types for folio-gateway persistence
// ABOUTME: Defines OAuth credential, MCP session, and content object records

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateClient is returned when a client_id collides with an existing registration
var ErrDuplicateClient = errors.New("client already exists")

// Client represents an OAuth-registered caller.
// Confidential clients carry a bcrypt hash of their secret; public clients
// have an empty SecretHash. Clients are immutable after registration.
type Client struct {
	ID           string
	SecretHash   string // empty for public clients
	Name         string
	RedirectURIs []string
	Confidential bool
	CreatedAt    time.Time
}

// AuthorizationCode is a single-use credential binding a user's consent to a client.
// A code is consumed exactly once: either by token exchange or by the expiry sweep.
type AuthorizationCode struct {
	Code            string
	ClientID        string
	UserID          string
	RedirectURI     string
	CodeChallenge   string
	ChallengeMethod string // "S256" or "plain"
	Scope           string
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// AccessToken is a bearer credential minted by the token endpoint.
type AccessToken struct {
	Token     string
	ClientID  string
	UserID    string
	Scope     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Session is a transport-level conversation handle, decoupled from OAuth
// identity. It carries no permissions of its own.
type Session struct {
	ID        string
	CreatedAt time.Time
}

// Content object statuses
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
)

// ContentObject is a stored content record (post or page) exposed through
// the content tool pack.
type ContentObject struct {
	ID        string
	Type      string // "post" or "page"
	Title     string
	Body      string
	Status    string // "draft" or "published"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialStore defines persistence for OAuth clients, codes, and tokens.
// The store exclusively owns these entities; no other component mutates them
// directly.
type CredentialStore interface {
	// Clients (immutable after creation)
	CreateClient(ctx context.Context, client *Client) error
	GetClient(ctx context.Context, id string) (*Client, error)

	// Authorization codes
	CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error
	// ConsumeAuthorizationCode atomically fetches and deletes the code in a
	// single statement. Two concurrent calls with the same code must never
	// both succeed; the loser gets ErrNotFound.
	ConsumeAuthorizationCode(ctx context.Context, code, clientID string) (*AuthorizationCode, error)
	DeleteExpiredCodes(ctx context.Context, now time.Time) error

	// Access tokens
	CreateAccessToken(ctx context.Context, token *AccessToken) error
	GetAccessToken(ctx context.Context, token string) (*AccessToken, error)
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// SessionStore defines persistence for MCP sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) error
}

// ContentStore defines persistence for content objects backing the tool pack.
type ContentStore interface {
	CreateContent(ctx context.Context, obj *ContentObject) error
	GetContent(ctx context.Context, id string) (*ContentObject, error)
	UpdateContent(ctx context.Context, obj *ContentObject) error
	DeleteContent(ctx context.Context, id string) error
	ListContent(ctx context.Context, contentType, status string, limit int) ([]*ContentObject, error)
}

// Store combines every persistence concern plus resource cleanup.
type Store interface {
	CredentialStore
	SessionStore
	ContentStore

	// Close releases any resources held by the store
	Close() error
}
