package domain

import "time"

// Mapping is the authoritative published link for a film source id.
// There is at most one row per source id; a later approval for the same
// source id overwrites url, reviewer and timestamp (last-approved-wins).
type Mapping struct {
	SourceID   string    `db:"source_id"   json:"source_id"`
	URL        string    `db:"url"         json:"url"`
	ReviewedBy string    `db:"reviewed_by" json:"reviewed_by"`
	ApprovedAt time.Time `db:"approved_at" json:"approved_at"`
}
