package freshness

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/stillhq/still/internal/forum"
)

// ActionType names a community verification gesture.
type ActionType string

const (
	ActionVerify         ActionType = "verify"
	ActionReportOutdated ActionType = "report_outdated"
)

// ErrUnknownAction is returned when an Action carries an unrecognized type.
var ErrUnknownAction = errors.New("unknown verification action")

// Assessment is the portion of an LLM outdatedness judgment the engine
// consumes: a signed delta scaling the magnitude of a score update. It never
// sets state directly.
type Assessment struct {
	ConfidenceDelta float64 `json:"confidence_delta"`
	Reasoning       string  `json:"reasoning"`
}

// Action is an ephemeral verification gesture applied to a post.
type Action struct {
	Type       ActionType
	Timestamp  time.Time
	Assessment *Assessment
}

// Stats tallies the current states of a thread's posts.
type Stats struct {
	Verified         int `json:"verified"`
	PossiblyOutdated int `json:"possiblyOutdated"`
	Outdated         int `json:"outdated"`
	Total            int `json:"total"`
}

// Engine owns the freshness scoring algorithm and drives thread-wide
// reconciliation against the content store.
type Engine struct {
	store forum.Store
	now   func() time.Time
}

// NewEngine creates an Engine backed by the given content store.
func NewEngine(store forum.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// ApplyVerification applies a verify/report action to a freshness record and
// returns the full replacement record with its state restamped. The input is
// never mutated; score stays within [0,1] and counts never go negative, no
// matter how often this is called.
func (e *Engine) ApplyVerification(m forum.FreshnessMetadata, action Action) (forum.FreshnessMetadata, error) {
	updated := m

	switch action.Type {
	case ActionVerify:
		updated.LastVerifiedAt = action.Timestamp
		updated.VerificationCount = m.VerificationCount + 1

		// Diminishing returns: each successive verification moves the score
		// less than the last.
		boost := 0.1 / math.Sqrt(float64(updated.VerificationCount))
		if action.Assessment != nil {
			boost *= 1 + action.Assessment.ConfidenceDelta*0.5
		}
		updated.VerificationScore = math.Min(1.0, m.VerificationScore+boost)

		// A fresh verification partially forgives prior complaints.
		updated.OutdatedReports = m.OutdatedReports - 1
		if updated.OutdatedReports < 0 {
			updated.OutdatedReports = 0
		}

	case ActionReportOutdated:
		updated.OutdatedReports = m.OutdatedReports + 1

		penalty := 0.15
		if action.Assessment != nil && action.Assessment.ConfidenceDelta < 0 {
			penalty *= 1 + math.Abs(action.Assessment.ConfidenceDelta)*0.5
		}
		updated.VerificationScore = math.Max(0.0, m.VerificationScore-penalty)

	default:
		return m, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	updated.State = ComputeState(updated, action.Timestamp)
	return updated, nil
}

// RecalculateThreadFreshness recomputes each post's time-based state and
// writes back only the posts whose state changed. A single post's failure is
// logged and skipped; only a failure to fetch the thread's posts propagates.
func (e *Engine) RecalculateThreadFreshness(ctx context.Context, threadID string) error {
	posts, err := e.store.RetrieveThreadPosts(ctx, threadID)
	if err != nil {
		return fmt.Errorf("fetch posts for thread %s: %w", threadID, err)
	}

	now := e.now()
	for i := range posts {
		post := &posts[i]
		fm := post.Freshness()
		if fm == nil {
			continue
		}

		newState := ComputeState(*fm, now)
		if newState == fm.State {
			continue
		}

		updated := *fm
		updated.State = newState
		if _, err := e.store.UpdatePost(ctx, post.ID, &forum.PostMetadata{Freshness: &updated}); err != nil {
			log.Printf("freshness: update post %s in thread %s: %v", post.ID, threadID, err)
			continue
		}
	}

	return nil
}

// ThreadStatistics tallies current states across a thread's posts. Posts
// without freshness metadata count toward Total but no state bucket.
func (e *Engine) ThreadStatistics(posts []forum.Post) Stats {
	stats := Stats{Total: len(posts)}
	now := e.now()

	for i := range posts {
		fm := posts[i].Freshness()
		if fm == nil {
			continue
		}
		switch ComputeState(*fm, now) {
		case forum.StateVerified:
			stats.Verified++
		case forum.StatePossiblyOutdated:
			stats.PossiblyOutdated++
		case forum.StateOutdated:
			stats.Outdated++
		}
	}
	return stats
}
