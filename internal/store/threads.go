package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stillhq/still/internal/forum"
)

// CreateThread inserts a new question thread.
func (db *DB) CreateThread(ctx context.Context, title, body string, meta *forum.ThreadMetadata) (*forum.Thread, error) {
	now := time.Now()
	t := &forum.Thread{
		ID:           uuid.NewString(),
		Title:        title,
		Body:         body,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExtendedData: meta,
	}

	raw, err := marshalMeta(meta)
	if err != nil {
		return nil, fmt.Errorf("encode thread metadata: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO threads (id, title, body, user_id, extended_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Body, t.UserID, raw, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}
	return t, nil
}

// RetrieveThread fetches a single thread by id.
func (db *DB) RetrieveThread(ctx context.Context, id string) (*forum.Thread, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, title, body, COALESCE(user_id, ''), extended_data, created_at, updated_at
		FROM threads WHERE id = ?
	`, id)

	t, err := scanThread(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread %s: %w", id, forum.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve thread: %w", err)
	}
	return t, nil
}

// ListThreads returns one page of threads, newest first.
func (db *DB) ListThreads(ctx context.Context, page, pageSize int) ([]forum.Thread, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, body, COALESCE(user_id, ''), extended_data, created_at, updated_at
		FROM threads
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var out []forum.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*forum.Thread, error) {
	var (
		t                    forum.Thread
		raw                  sql.NullString
		createdMs, updatedMs int64
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Body, &t.UserID, &raw, &createdMs, &updatedMs); err != nil {
		return nil, err
	}
	t.CreatedAt = time.UnixMilli(createdMs).UTC()
	t.UpdatedAt = time.UnixMilli(updatedMs).UTC()

	if raw.Valid && raw.String != "" {
		var meta forum.ThreadMetadata
		if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
			return nil, fmt.Errorf("decode thread metadata: %w", err)
		}
		t.ExtendedData = &meta
	}
	return &t, nil
}

func marshalMeta(meta any) (sql.NullString, error) {
	// A typed nil pointer inside `any` still marshals as "null"; store NULL.
	switch m := meta.(type) {
	case *forum.ThreadMetadata:
		if m == nil {
			return sql.NullString{}, nil
		}
	case *forum.PostMetadata:
		if m == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
