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

// CreatePost inserts a new answer post.
func (db *DB) CreatePost(ctx context.Context, threadID, body string, meta *forum.PostMetadata) (*forum.Post, error) {
	now := time.Now()
	p := &forum.Post{
		ID:           uuid.NewString(),
		ThreadID:     threadID,
		Body:         body,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExtendedData: meta,
	}

	raw, err := marshalMeta(meta)
	if err != nil {
		return nil, fmt.Errorf("encode post metadata: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO posts (id, thread_id, body, user_id, extended_data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ThreadID, p.Body, p.UserID, raw, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// RetrievePost fetches a single post by id.
func (db *DB) RetrievePost(ctx context.Context, id string) (*forum.Post, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, thread_id, body, COALESCE(user_id, ''), extended_data, created_at, updated_at
		FROM posts WHERE id = ?
	`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, forum.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve post: %w", err)
	}
	return p, nil
}

// RetrieveThreadPosts fetches all posts of a thread in creation order.
func (db *DB) RetrieveThreadPosts(ctx context.Context, threadID string) ([]forum.Post, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, thread_id, body, COALESCE(user_id, ''), extended_data, created_at, updated_at
		FROM posts
		WHERE thread_id = ?
		ORDER BY created_at, id
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("list posts for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var out []forum.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdatePost replaces a post's extendedData wholesale.
func (db *DB) UpdatePost(ctx context.Context, id string, meta *forum.PostMetadata) (*forum.Post, error) {
	raw, err := marshalMeta(meta)
	if err != nil {
		return nil, fmt.Errorf("encode post metadata: %w", err)
	}

	res, err := db.ExecContext(ctx, `
		UPDATE posts SET extended_data = ?, updated_at = ? WHERE id = ?
	`, raw, time.Now().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("post %s: %w", id, forum.ErrNotFound)
	}

	return db.RetrievePost(ctx, id)
}

func scanPost(row rowScanner) (*forum.Post, error) {
	var (
		p                    forum.Post
		raw                  sql.NullString
		createdMs, updatedMs int64
	)
	if err := row.Scan(&p.ID, &p.ThreadID, &p.Body, &p.UserID, &raw, &createdMs, &updatedMs); err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(createdMs).UTC()
	p.UpdatedAt = time.UnixMilli(updatedMs).UTC()

	if raw.Valid && raw.String != "" {
		var meta forum.PostMetadata
		if err := json.Unmarshal([]byte(raw.String), &meta); err != nil {
			return nil, fmt.Errorf("decode post metadata: %w", err)
		}
		p.ExtendedData = &meta
	}
	return &p, nil
}

var _ forum.Store = (*DB)(nil)
