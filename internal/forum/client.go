package forum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a Foru.ms-style forum REST API. Only the extendedData field
// of threads and posts is interpreted here; everything else round-trips.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a forum API client. timeout bounds every single call.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("forum api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("forum api status %d: %s", resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreateThread creates a question thread with its classification metadata.
func (c *Client) CreateThread(ctx context.Context, title, body string, meta *ThreadMetadata) (*Thread, error) {
	payload := map[string]any{
		"title":        title,
		"body":         body,
		"extendedData": meta,
	}
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/api/v1/threads", payload, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// RetrieveThread fetches a single thread by id.
func (c *Client) RetrieveThread(ctx context.Context, id string) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodGet, "/api/v1/threads/"+url.PathEscape(id), nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// ListThreads fetches one page of threads.
func (c *Client) ListThreads(ctx context.Context, page, pageSize int) ([]Thread, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))

	var resp struct {
		Threads []Thread `json:"threads"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/threads?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Threads, nil
}

// RetrieveThreadPosts fetches all posts of a thread.
func (c *Client) RetrieveThreadPosts(ctx context.Context, threadID string) ([]Post, error) {
	var resp struct {
		Posts []Post `json:"posts"`
	}
	path := "/api/v1/threads/" + url.PathEscape(threadID) + "/posts"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// CreatePost creates an answer post carrying its initial freshness metadata.
func (c *Client) CreatePost(ctx context.Context, threadID, body string, meta *PostMetadata) (*Post, error) {
	payload := map[string]any{
		"threadId":     threadID,
		"body":         body,
		"extendedData": meta,
	}
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/v1/posts", payload, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// RetrievePost fetches a single post by id.
func (c *Client) RetrievePost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/api/v1/posts/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces a post's extendedData wholesale. The forum API exposes
// no version token, so concurrent writers last-write-win; the scheduler's next
// batch restores any clobbered time-decay state.
func (c *Client) UpdatePost(ctx context.Context, id string, meta *PostMetadata) (*Post, error) {
	payload := map[string]any{
		"extendedData": meta,
	}
	var post Post
	if err := c.do(ctx, http.MethodPatch, "/api/v1/posts/"+url.PathEscape(id), payload, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

var _ Store = (*Client)(nil)
