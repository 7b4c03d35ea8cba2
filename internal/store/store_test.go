package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stillhq/still/internal/forum"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestThreadRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	meta := &forum.ThreadMetadata{
		QuestionType:             forum.FastChangingTech,
		WindowDays:               90,
		ClassificationConfidence: 0.9,
		ClassificationReason:     "asks about a library version",
	}
	created, err := db.CreateThread(ctx, "What's new in Go 1.24?", "release notes question", meta)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created thread has no id")
	}

	got, err := db.RetrieveThread(ctx, created.ID)
	if err != nil {
		t.Fatalf("RetrieveThread: %v", err)
	}
	if got.Title != "What's new in Go 1.24?" {
		t.Errorf("title = %q", got.Title)
	}
	if got.ExtendedData == nil {
		t.Fatal("thread metadata did not round-trip")
	}
	if *got.ExtendedData != *meta {
		t.Errorf("metadata = %+v, want %+v", *got.ExtendedData, *meta)
	}
	if got.QuestionType() != forum.FastChangingTech {
		t.Errorf("QuestionType = %v", got.QuestionType())
	}
}

func TestThreadWithoutMetadata(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	created, err := db.CreateThread(ctx, "untitled", "body", nil)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	got, err := db.RetrieveThread(ctx, created.ID)
	if err != nil {
		t.Fatalf("RetrieveThread: %v", err)
	}
	if got.ExtendedData != nil {
		t.Errorf("metadata = %+v, want nil", got.ExtendedData)
	}
	if got.QuestionType() != forum.StableConcept {
		t.Errorf("unclassified thread QuestionType = %v, want stable-concept", got.QuestionType())
	}
}

func TestRetrieveThreadNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.RetrieveThread(context.Background(), "nope")
	if !errors.Is(err, forum.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListThreadsPaging(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := db.CreateThread(ctx, "q", "body", nil); err != nil {
			t.Fatalf("CreateThread: %v", err)
		}
		// distinct creation timestamps keep newest-first ordering deterministic
		time.Sleep(2 * time.Millisecond)
	}

	page1, err := db.ListThreads(ctx, 1, 3)
	if err != nil {
		t.Fatalf("ListThreads page 1: %v", err)
	}
	if len(page1) != 3 {
		t.Fatalf("page 1 size = %d, want 3", len(page1))
	}
	page2, err := db.ListThreads(ctx, 2, 3)
	if err != nil {
		t.Fatalf("ListThreads page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 size = %d, want 2", len(page2))
	}

	if !page1[0].CreatedAt.After(page2[len(page2)-1].CreatedAt) {
		t.Errorf("expected newest-first ordering across pages: %v vs %v",
			page1[0].CreatedAt, page2[len(page2)-1].CreatedAt)
	}
}

func TestPostRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	thread, err := db.CreateThread(ctx, "q", "body", nil)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := &forum.PostMetadata{
		Freshness: &forum.FreshnessMetadata{
			CreatedAt:         stamp,
			LastVerifiedAt:    stamp,
			WindowDays:        365,
			State:             forum.StatePossiblyOutdated,
			VerificationScore: 0.5,
		},
	}
	created, err := db.CreatePost(ctx, thread.ID, "an answer", meta)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	got, err := db.RetrievePost(ctx, created.ID)
	if err != nil {
		t.Fatalf("RetrievePost: %v", err)
	}
	if got.ThreadID != thread.ID {
		t.Errorf("thread id = %q, want %q", got.ThreadID, thread.ID)
	}
	fm := got.Freshness()
	if fm == nil {
		t.Fatal("freshness record did not round-trip")
	}
	if *fm != *meta.Freshness {
		t.Errorf("freshness = %+v, want %+v", *fm, *meta.Freshness)
	}
}

func TestRetrieveThreadPostsOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	thread, err := db.CreateThread(ctx, "q", "body", nil)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := db.CreatePost(ctx, thread.ID, "answer", nil)
		if err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
		ids = append(ids, p.ID)
		time.Sleep(2 * time.Millisecond)
	}

	posts, err := db.RetrieveThreadPosts(ctx, thread.ID)
	if err != nil {
		t.Fatalf("RetrieveThreadPosts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	for i, p := range posts {
		if p.ID != ids[i] {
			t.Errorf("post %d = %s, want %s (creation order)", i, p.ID, ids[i])
		}
	}

	other, err := db.RetrieveThreadPosts(ctx, "other-thread")
	if err != nil {
		t.Fatalf("RetrieveThreadPosts empty: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("got %d posts for unknown thread, want 0", len(other))
	}
}

func TestUpdatePost(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	thread, err := db.CreateThread(ctx, "q", "body", nil)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	post, err := db.CreatePost(ctx, thread.ID, "answer", nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	meta := &forum.PostMetadata{
		Freshness: &forum.FreshnessMetadata{
			State:             forum.StateVerified,
			WindowDays:        180,
			VerificationScore: 0.6,
			VerificationCount: 1,
		},
	}
	updated, err := db.UpdatePost(ctx, post.ID, meta)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	fm := updated.Freshness()
	if fm == nil || fm.State != forum.StateVerified || fm.VerificationCount != 1 {
		t.Errorf("updated freshness = %+v", fm)
	}

	_, err = db.UpdatePost(ctx, "missing", meta)
	if !errors.Is(err, forum.ErrNotFound) {
		t.Errorf("update missing post error = %v, want ErrNotFound", err)
	}
}
