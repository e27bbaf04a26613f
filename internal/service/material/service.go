package material

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a submission, profile or summary row does not
// exist. Handlers decide whether that maps to 404 or something else.
var ErrNotFound = errors.New("record not found")

// Service handles durable submission metadata, user profiles and summaries.
type Service struct {
	db *sql.DB
}

// NewService builds a new material service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}
