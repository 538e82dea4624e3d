// ABOUTME: OAuth credential persistence: clients, authorization codes, access tokens
// ABOUTME: Code consumption is a single atomic DELETE RETURNING to prevent replay

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CreateClient stores a new OAuth client registration.
// Returns ErrDuplicateClient if the client_id already exists.
func (s *SQLiteStore) CreateClient(ctx context.Context, client *Client) error {
	urisJSON, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return fmt.Errorf("encoding redirect URIs: %w", err)
	}

	query := `
		INSERT INTO oauth_clients (client_id, secret_hash, name, redirect_uris, confidential, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	confidential := 0
	if client.Confidential {
		confidential = 1
	}

	_, err = s.db.ExecContext(ctx, query,
		client.ID,
		client.SecretHash,
		client.Name,
		string(urisJSON),
		confidential,
		client.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateClient
		}
		return fmt.Errorf("inserting client: %w", err)
	}

	s.logger.Debug("created client", "client_id", client.ID, "name", client.Name, "confidential", client.Confidential)
	return nil
}

// GetClient retrieves a client by ID.
// Returns ErrNotFound if the client doesn't exist.
func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*Client, error) {
	query := `
		SELECT client_id, secret_hash, name, redirect_uris, confidential, created_at
		FROM oauth_clients
		WHERE client_id = ?
	`

	var client Client
	var urisJSON, createdAtStr string
	var confidential int

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.SecretHash,
		&client.Name,
		&urisJSON,
		&confidential,
		&createdAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying client: %w", err)
	}

	if err := json.Unmarshal([]byte(urisJSON), &client.RedirectURIs); err != nil {
		return nil, fmt.Errorf("decoding redirect URIs: %w", err)
	}
	client.Confidential = confidential != 0

	client.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &client, nil
}

// CreateAuthorizationCode stores a new single-use authorization code.
func (s *SQLiteStore) CreateAuthorizationCode(ctx context.Context, code *AuthorizationCode) error {
	query := `
		INSERT INTO oauth_codes (code, client_id, user_id, redirect_uri, code_challenge, challenge_method, scope, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		code.Code,
		code.ClientID,
		code.UserID,
		code.RedirectURI,
		code.CodeChallenge,
		code.ChallengeMethod,
		code.Scope,
		code.CreatedAt.UTC().Format(time.RFC3339),
		code.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting authorization code: %w", err)
	}

	s.logger.Debug("created authorization code", "client_id", code.ClientID, "user_id", code.UserID)
	return nil
}

// ConsumeAuthorizationCode atomically fetches and deletes an authorization code.
// The DELETE ... RETURNING runs as one statement, so of two concurrent calls
// with the same code exactly one observes the row. Returns ErrNotFound when
// the code does not exist (or was already consumed) for this client.
//
// Expiry is NOT checked here: the caller must compare ExpiresAt against the
// current time and treat an expired code as invalid. Consuming it anyway is
// correct since an expired code must never authorize an exchange either.
func (s *SQLiteStore) ConsumeAuthorizationCode(ctx context.Context, code, clientID string) (*AuthorizationCode, error) {
	query := `
		DELETE FROM oauth_codes
		WHERE code = ? AND client_id = ?
		RETURNING code, client_id, user_id, redirect_uri, code_challenge, challenge_method, scope, created_at, expires_at
	`

	var ac AuthorizationCode
	var createdAtStr, expiresAtStr string

	err := s.db.QueryRowContext(ctx, query, code, clientID).Scan(
		&ac.Code,
		&ac.ClientID,
		&ac.UserID,
		&ac.RedirectURI,
		&ac.CodeChallenge,
		&ac.ChallengeMethod,
		&ac.Scope,
		&createdAtStr,
		&expiresAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consuming authorization code: %w", err)
	}

	ac.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	ac.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	s.logger.Debug("consumed authorization code", "client_id", clientID)
	return &ac, nil
}

// DeleteExpiredCodes removes authorization codes that expired before now.
func (s *SQLiteStore) DeleteExpiredCodes(ctx context.Context, now time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM oauth_codes WHERE expires_at <= ?`,
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("deleting expired codes: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired authorization codes", "count", rowsAffected)
	}
	return nil
}

// CreateAccessToken stores a new bearer token.
func (s *SQLiteStore) CreateAccessToken(ctx context.Context, token *AccessToken) error {
	query := `
		INSERT INTO oauth_tokens (token, client_id, user_id, scope, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.Token,
		token.ClientID,
		token.UserID,
		token.Scope,
		token.CreatedAt.UTC().Format(time.RFC3339),
		token.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting access token: %w", err)
	}

	s.logger.Debug("created access token", "client_id", token.ClientID, "user_id", token.UserID)
	return nil
}

// GetAccessToken retrieves a non-expired access token.
// Expired tokens are treated as absent even before the sweep removes them.
func (s *SQLiteStore) GetAccessToken(ctx context.Context, token string) (*AccessToken, error) {
	query := `
		SELECT token, client_id, user_id, scope, created_at, expires_at
		FROM oauth_tokens
		WHERE token = ? AND expires_at > ?
	`

	var at AccessToken
	var createdAtStr, expiresAtStr string
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.db.QueryRowContext(ctx, query, token, now).Scan(
		&at.Token,
		&at.ClientID,
		&at.UserID,
		&at.Scope,
		&createdAtStr,
		&expiresAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying access token: %w", err)
	}

	at.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	at.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &at, nil
}

// DeleteExpiredTokens removes access tokens that expired before now.
func (s *SQLiteStore) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM oauth_tokens WHERE expires_at <= ?`,
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("deleting expired tokens: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired access tokens", "count", rowsAffected)
	}
	return nil
}
