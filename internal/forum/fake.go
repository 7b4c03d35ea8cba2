package forum

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Fake is an in-memory Store for tests. It preserves insertion order, records
// which posts were written back, and supports per-call error injection.
type Fake struct {
	mu sync.Mutex

	threads     map[string]*Thread
	posts       map[string]*Post
	threadOrder []string
	postOrder   map[string][]string // threadID -> post ids in creation order

	// Updates records post ids passed to UpdatePost, in order.
	Updates []string

	// Error injection. ListErr fails ListThreads; PostsErrs fails
	// RetrieveThreadPosts for specific threads; UpdateErrs fails UpdatePost
	// for specific post ids.
	ListErr    error
	PostsErrs  map[string]error
	UpdateErrs map[string]error

	nextID int
}

// NewFake returns an empty in-memory store.
func NewFake() *Fake {
	return &Fake{
		threads:   make(map[string]*Thread),
		posts:     make(map[string]*Post),
		postOrder: make(map[string][]string),
	}
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *Fake) CreateThread(ctx context.Context, title, body string, meta *ThreadMetadata) (*Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	t := &Thread{
		ID:           f.id("thread"),
		Title:        title,
		Body:         body,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExtendedData: meta,
	}
	f.threads[t.ID] = t
	f.threadOrder = append(f.threadOrder, t.ID)
	copied := *t
	return &copied, nil
}

func (f *Fake) RetrieveThread(ctx context.Context, id string) (*Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.threads[id]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", id, ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (f *Fake) ListThreads(ctx context.Context, page, pageSize int) ([]Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(f.threadOrder) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(f.threadOrder) {
		end = len(f.threadOrder)
	}

	out := make([]Thread, 0, end-start)
	for _, id := range f.threadOrder[start:end] {
		out = append(out, *f.threads[id])
	}
	return out, nil
}

func (f *Fake) RetrieveThreadPosts(ctx context.Context, threadID string) ([]Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.PostsErrs[threadID]; err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(f.postOrder[threadID]))
	for _, id := range f.postOrder[threadID] {
		out = append(out, *f.posts[id])
	}
	return out, nil
}

func (f *Fake) CreatePost(ctx context.Context, threadID, body string, meta *PostMetadata) (*Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	p := &Post{
		ID:           f.id("post"),
		ThreadID:     threadID,
		Body:         body,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExtendedData: meta,
	}
	f.posts[p.ID] = p
	f.postOrder[threadID] = append(f.postOrder[threadID], p.ID)
	copied := *p
	return &copied, nil
}

func (f *Fake) RetrievePost(ctx context.Context, id string) (*Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	copied := *p
	return &copied, nil
}

func (f *Fake) UpdatePost(ctx context.Context, id string, meta *PostMetadata) (*Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.UpdateErrs[id]; err != nil {
		return nil, err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	p.ExtendedData = meta
	p.UpdatedAt = time.Now()
	f.Updates = append(f.Updates, id)
	copied := *p
	return &copied, nil
}

var _ Store = (*Fake)(nil)
