package forum

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	apiKey string
	body   map[string]any
}

// newTestClient returns a Client pointed at an httptest server that records
// every request and replies with the provided status and JSON body.
func newTestClient(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			apiKey: r.Header.Get("x-api-key"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		requests = append(requests, rec)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second), &requests
}

func TestClientCreateThread(t *testing.T) {
	client, requests := newTestClient(t, http.StatusCreated, `{"id":"t1","title":"How do I use goroutines?"}`)

	meta := &ThreadMetadata{QuestionType: FastChangingTech, WindowDays: 90}
	thread, err := client.CreateThread(context.Background(), "How do I use goroutines?", "details", meta)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.ID != "t1" {
		t.Errorf("thread id = %q, want t1", thread.ID)
	}

	req := (*requests)[0]
	if req.method != http.MethodPost || req.path != "/api/v1/threads" {
		t.Errorf("request = %s %s, want POST /api/v1/threads", req.method, req.path)
	}
	if req.apiKey != "test-key" {
		t.Errorf("x-api-key = %q, want test-key", req.apiKey)
	}
	if req.body["title"] != "How do I use goroutines?" {
		t.Errorf("payload title = %v", req.body["title"])
	}
	ext, ok := req.body["extendedData"].(map[string]any)
	if !ok {
		t.Fatalf("payload extendedData = %T, want object", req.body["extendedData"])
	}
	if ext["question_type"] != "fast-changing-tech" {
		t.Errorf("payload question_type = %v", ext["question_type"])
	}
}

func TestClientListThreads(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{"threads":[{"id":"t1"},{"id":"t2"}]}`)

	threads, err := client.ListThreads(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if len(threads) != 2 || threads[0].ID != "t1" || threads[1].ID != "t2" {
		t.Errorf("threads = %+v", threads)
	}

	req := (*requests)[0]
	if req.path != "/api/v1/threads" {
		t.Errorf("path = %q", req.path)
	}
	if req.query != "limit=50&page=2" {
		t.Errorf("query = %q, want limit=50&page=2", req.query)
	}
}

func TestClientListThreadsClampsPaging(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{"threads":[]}`)

	if _, err := client.ListThreads(context.Background(), 0, -1); err != nil {
		t.Fatalf("ListThreads: %v", err)
	}
	if q := (*requests)[0].query; q != "limit=20&page=1" {
		t.Errorf("query = %q, want limit=20&page=1", q)
	}
}

func TestClientRetrieveThreadPosts(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK,
		`{"posts":[{"id":"p1","threadId":"t1","extendedData":{"freshness":{"state":"VERIFIED","verification_score":0.8}}}]}`)

	posts, err := client.RetrieveThreadPosts(context.Background(), "t1")
	if err != nil {
		t.Fatalf("RetrieveThreadPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	fm := posts[0].Freshness()
	if fm == nil {
		t.Fatal("post lost its freshness record")
	}
	if fm.State != StateVerified || fm.VerificationScore != 0.8 {
		t.Errorf("freshness = %+v", fm)
	}

	if p := (*requests)[0].path; p != "/api/v1/threads/t1/posts" {
		t.Errorf("path = %q", p)
	}
}

func TestClientUpdatePost(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{"id":"p1","threadId":"t1"}`)

	meta := &PostMetadata{Freshness: &FreshnessMetadata{State: StateOutdated, WindowDays: 90}}
	post, err := client.UpdatePost(context.Background(), "p1", meta)
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if post.ID != "p1" {
		t.Errorf("post id = %q", post.ID)
	}

	req := (*requests)[0]
	if req.method != http.MethodPatch || req.path != "/api/v1/posts/p1" {
		t.Errorf("request = %s %s, want PATCH /api/v1/posts/p1", req.method, req.path)
	}
	ext, _ := req.body["extendedData"].(map[string]any)
	fresh, _ := ext["freshness"].(map[string]any)
	if fresh["state"] != "OUTDATED" {
		t.Errorf("payload state = %v", fresh["state"])
	}
}

func TestClientNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.StatusNotFound, `{"error":"not found"}`)

	if _, err := client.RetrievePost(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RetrievePost error = %v, want ErrNotFound", err)
	}
	if _, err := client.RetrieveThread(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RetrieveThread error = %v, want ErrNotFound", err)
	}
}

func TestClientServerError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, `boom`)

	_, err := client.RetrieveThread(context.Background(), "t1")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("500 must not map to ErrNotFound")
	}
}
