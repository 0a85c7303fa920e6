// Package domain defines the core entities for the trailer link service.
package domain

import "time"

// SubmissionStatus represents the moderation state of a submission.
type SubmissionStatus string

const (
	// StatusPending marks a submission awaiting review.
	StatusPending SubmissionStatus = "pending"
	// StatusApproved marks a submission accepted and published.
	StatusApproved SubmissionStatus = "approved"
	// StatusRejected marks a submission declined by a reviewer.
	StatusRejected SubmissionStatus = "rejected"
)

// Submission is a proposed film-to-link mapping awaiting a reviewer decision.
// Submissions are append-only: the status transitions pending to
// approved/rejected exactly once and rows are never deleted.
type Submission struct {
	ID        string           `db:"id"         json:"id"`
	SourceID  string           `db:"source_id"  json:"source_id"`
	URL       string           `db:"url"        json:"url"`
	Status    SubmissionStatus `db:"status"     json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
