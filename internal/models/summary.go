package models

import "time"

// Summary is one generated summary revision for a submission. Rows are
// append-only: regeneration inserts the next version instead of updating,
// and the current summary is the row with the highest version.
type Summary struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	SummaryText string    `json:"summary_text"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}
