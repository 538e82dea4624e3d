// ABOUTME: Content object persistence backing the content tool pack
// ABOUTME: Simple CRUD over posts and pages with type/status filtering

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateContent stores a new content object.
func (s *SQLiteStore) CreateContent(ctx context.Context, obj *ContentObject) error {
	query := `
		INSERT INTO content_objects (id, type, title, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	status := obj.Status
	if status == "" {
		status = ContentStatusDraft
	}

	_, err := s.db.ExecContext(ctx, query,
		obj.ID,
		obj.Type,
		obj.Title,
		obj.Body,
		status,
		obj.CreatedAt.UTC().Format(time.RFC3339),
		obj.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting content object: %w", err)
	}

	s.logger.Debug("created content object", "id", obj.ID, "type", obj.Type)
	return nil
}

// GetContent retrieves a content object by ID.
// Returns ErrNotFound if the object doesn't exist.
func (s *SQLiteStore) GetContent(ctx context.Context, id string) (*ContentObject, error) {
	query := `
		SELECT id, type, title, body, status, created_at, updated_at
		FROM content_objects
		WHERE id = ?
	`

	var obj ContentObject
	var createdAtStr, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&obj.ID,
		&obj.Type,
		&obj.Title,
		&obj.Body,
		&obj.Status,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying content object: %w", err)
	}

	obj.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	obj.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &obj, nil
}

// UpdateContent updates an existing content object's title, body, and status.
// Returns ErrNotFound if the object doesn't exist.
func (s *SQLiteStore) UpdateContent(ctx context.Context, obj *ContentObject) error {
	query := `
		UPDATE content_objects
		SET title = ?, body = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		obj.Title,
		obj.Body,
		obj.Status,
		obj.UpdatedAt.UTC().Format(time.RFC3339),
		obj.ID,
	)
	if err != nil {
		return fmt.Errorf("updating content object: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated content object", "id", obj.ID)
	return nil
}

// DeleteContent removes a content object by ID.
// Returns ErrNotFound if the object doesn't exist.
func (s *SQLiteStore) DeleteContent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM content_objects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting content object: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted content object", "id", id)
	return nil
}

// ListContent returns content objects, newest first, optionally filtered by
// type and status. If limit is 0 or negative, a default of 100 is used.
func (s *SQLiteStore) ListContent(ctx context.Context, contentType, status string, limit int) ([]*ContentObject, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `
		SELECT id, type, title, body, status, created_at, updated_at
		FROM content_objects
		WHERE (? = '' OR type = ?) AND (? = '' OR status = ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, contentType, contentType, status, status, limit)
	if err != nil {
		return nil, fmt.Errorf("querying content objects: %w", err)
	}
	defer rows.Close()

	var objects []*ContentObject
	for rows.Next() {
		var obj ContentObject
		var createdAtStr, updatedAtStr string

		if err := rows.Scan(&obj.ID, &obj.Type, &obj.Title, &obj.Body, &obj.Status, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}

		obj.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		obj.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}

		objects = append(objects, &obj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content rows: %w", err)
	}

	return objects, nil
}
