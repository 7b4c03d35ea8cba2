package forum

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a thread or post does not exist.
var ErrNotFound = errors.New("not found")

// Store is the content-store contract. The freshness core only ever reads and
// rewrites the extendedData blobs; all other fields pass through untouched.
type Store interface {
	CreateThread(ctx context.Context, title, body string, meta *ThreadMetadata) (*Thread, error)
	RetrieveThread(ctx context.Context, id string) (*Thread, error)
	ListThreads(ctx context.Context, page, pageSize int) ([]Thread, error)
	RetrieveThreadPosts(ctx context.Context, threadID string) ([]Post, error)
	CreatePost(ctx context.Context, threadID, body string, meta *PostMetadata) (*Post, error)
	RetrievePost(ctx context.Context, id string) (*Post, error)
	UpdatePost(ctx context.Context, id string, meta *PostMetadata) (*Post, error)
}
