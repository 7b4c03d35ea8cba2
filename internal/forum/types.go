package forum

import "time"

// State is the freshness lifecycle state stamped onto a post's metadata.
type State string

const (
	StateVerified         State = "VERIFIED"
	StatePossiblyOutdated State = "POSSIBLY_OUTDATED"
	StateOutdated         State = "OUTDATED"
)

// QuestionType categorizes a thread's question for freshness-window purposes.
type QuestionType string

const (
	FastChangingTech QuestionType = "fast-changing-tech"
	StableConcept    QuestionType = "stable-concept"
	Opinion          QuestionType = "opinion"
	Policy           QuestionType = "policy"
)

// ValidQuestionType reports whether s names one of the known categories.
func ValidQuestionType(s string) bool {
	switch QuestionType(s) {
	case FastChangingTech, StableConcept, Opinion, Policy:
		return true
	}
	return false
}

// FreshnessMetadata is the per-post freshness record. It is persisted as the
// "freshness" object inside a post's extendedData and is the wire format
// between this service and the content store, so field names are load-bearing.
type FreshnessMetadata struct {
	CreatedAt         time.Time `json:"created_at"`
	LastVerifiedAt    time.Time `json:"last_verified_at"`
	WindowDays        int       `json:"freshness_window_days"`
	State             State     `json:"state"`
	VerificationScore float64   `json:"verification_score"`
	VerificationCount int       `json:"verification_count"`
	OutdatedReports   int       `json:"outdated_reports"`
}

// PostMetadata is the extendedData envelope carried on a post.
type PostMetadata struct {
	Freshness *FreshnessMetadata `json:"freshness,omitempty"`
}

// ThreadMetadata is the extendedData envelope carried on a thread. The
// classification confidence and reason are informational; only the question
// type (via the window lookup) feeds the freshness core.
type ThreadMetadata struct {
	QuestionType             QuestionType `json:"question_type,omitempty"`
	WindowDays               int          `json:"freshness_window_days,omitempty"`
	ClassificationConfidence float64      `json:"classification_confidence,omitempty"`
	ClassificationReason     string       `json:"classification_reason,omitempty"`
}

// Thread is a question thread as exposed by the content store.
type Thread struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Body         string          `json:"body"`
	UserID       string          `json:"userId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	ExtendedData *ThreadMetadata `json:"extendedData,omitempty"`
}

// Post is a single answer within a thread.
type Post struct {
	ID           string        `json:"id"`
	ThreadID     string        `json:"threadId"`
	Body         string        `json:"body"`
	UserID       string        `json:"userId,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	ExtendedData *PostMetadata `json:"extendedData,omitempty"`
}

// QuestionType returns the thread's classified category, defaulting to
// stable-concept when the thread carries no classification.
func (t *Thread) QuestionType() QuestionType {
	if t == nil || t.ExtendedData == nil || t.ExtendedData.QuestionType == "" {
		return StableConcept
	}
	return t.ExtendedData.QuestionType
}

// Freshness returns the post's freshness record, or nil when the post has
// never been stamped.
func (p *Post) Freshness() *FreshnessMetadata {
	if p == nil || p.ExtendedData == nil {
		return nil
	}
	return p.ExtendedData.Freshness
}
