package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/stillhq/still/internal/forum"
)

// AssessmentResult is the outdatedness explainer's judgment on a single
// answer. The freshness engine consumes only the confidence delta, as a
// scoring modifier; the boolean and reasoning are surfaced to the caller.
type AssessmentResult struct {
	IsOutdated      bool    `json:"is_outdated"`
	ConfidenceDelta float64 `json:"confidence_delta"`
	Reasoning       string  `json:"reasoning"`
}

// Verifier asks an LLM whether an answer has gone stale relative to its
// question. It is never authoritative: its output only modulates the engine's
// deterministic scoring, never sets state.
type Verifier struct {
	client Client
}

// NewVerifier creates a Verifier. Unlike the classifier there is no heuristic
// fallback; callers treat an error as "no assessment available".
func NewVerifier(client Client) *Verifier {
	return &Verifier{client: client}
}

// Assess judges whether a post's answer is likely outdated.
func (v *Verifier) Assess(ctx context.Context, post *forum.Post, thread *forum.Thread) (*AssessmentResult, error) {
	if v.client == nil {
		return nil, fmt.Errorf("no LLM configured")
	}

	ageDays := int(time.Since(post.CreatedAt) / (24 * time.Hour))
	prompt := AssessmentPrompt(thread.Title, thread.Body, post.Body, ageDays)

	resp, err := v.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("assessment llm: %w", err)
	}

	var result AssessmentResult
	if err := decodeJSONObject(resp.Content, &result); err != nil {
		return nil, fmt.Errorf("parse assessment: %w", err)
	}

	// Clamp the delta: it scales score updates and must stay a modifier.
	if result.ConfidenceDelta > 1 {
		result.ConfidenceDelta = 1
	}
	if result.ConfidenceDelta < -1 {
		result.ConfidenceDelta = -1
	}

	return &result, nil
}
