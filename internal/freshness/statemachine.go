package freshness

import (
	"time"

	"github.com/stillhq/still/internal/forum"
)

// Freshness windows per question category, in days.
var windows = map[forum.QuestionType]int{
	forum.FastChangingTech: 90,
	forum.StableConcept:    365,
	forum.Opinion:          180,
	forum.Policy:           180,
}

// WindowDays returns the nominal validity period for a question category.
// Unknown categories fall back to the stable-concept window.
func WindowDays(qt forum.QuestionType) int {
	if d, ok := windows[qt]; ok {
		return d
	}
	return windows[forum.StableConcept]
}

// daysSince truncates elapsed time to whole days.
func daysSince(from, now time.Time) int {
	return int(now.Sub(from) / (24 * time.Hour))
}

// ComputeState derives the lifecycle state from a freshness record and a
// reference time. Pure and idempotent; rules are checked in priority order and
// the first match wins.
func ComputeState(m forum.FreshnessMetadata, now time.Time) forum.State {
	// Community consensus overrides everything, including elapsed time.
	if m.OutdatedReports > 2 {
		return forum.StateOutdated
	}
	if m.VerificationScore < 0.3 {
		return forum.StateOutdated
	}

	// Never touched by the community: cautious regardless of age.
	if m.VerificationCount == 0 && m.OutdatedReports == 0 {
		return forum.StatePossiblyOutdated
	}

	elapsed := daysSince(m.LastVerifiedAt, now)
	if float64(elapsed) > float64(m.WindowDays)*1.5 {
		return forum.StateOutdated
	}
	if elapsed > m.WindowDays {
		return forum.StatePossiblyOutdated
	}

	return forum.StateVerified
}

// DefaultMetadata builds the freshness record for a newly created post. A
// fresh, unverified answer starts cautiously flagged rather than trusted.
func DefaultMetadata(qt forum.QuestionType, now time.Time) *forum.PostMetadata {
	return &forum.PostMetadata{
		Freshness: &forum.FreshnessMetadata{
			CreatedAt:         now,
			LastVerifiedAt:    now,
			WindowDays:        WindowDays(qt),
			State:             forum.StatePossiblyOutdated,
			VerificationScore: 0.5,
			VerificationCount: 0,
			OutdatedReports:   0,
		},
	}
}
