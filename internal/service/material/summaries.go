package material

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studypile/internal/models"
)

// AppendSummary inserts the next summary version for a submission. Versions
// start at 1 and grow by one per call; existing rows are never touched, so
// regeneration is additive. Only one pipeline task writes per submission at
// a time, which keeps the select-then-insert free of races.
func (s *Service) AppendSummary(ctx context.Context, fileID, text string) (*models.Summary, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, errors.New("file id is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("summary text cannot be empty")
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents_metadata WHERE id = ?)`, fileID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("verify document: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	var maxVersion int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM summaries WHERE document_id = ?`, fileID,
	).Scan(&maxVersion); err != nil {
		return nil, fmt.Errorf("query max version: %w", err)
	}

	summary := models.Summary{
		ID:          uuid.NewString(),
		DocumentID:  fileID,
		SummaryText: text,
		Version:     maxVersion + 1,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (id, document_id, summary_text, version, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		summary.ID, summary.DocumentID, summary.SummaryText, summary.Version, summary.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	return &summary, nil
}

// LatestSummary returns the row with the highest version for a submission,
// not the most recently written one, so out-of-order writes stay harmless.
func (s *Service) LatestSummary(ctx context.Context, fileID string) (*models.Summary, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, errors.New("file id is required")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, summary_text, version, created_at
		 FROM summaries WHERE document_id = ? ORDER BY version DESC LIMIT 1`, fileID,
	)
	var summary models.Summary
	if err := row.Scan(&summary.ID, &summary.DocumentID, &summary.SummaryText, &summary.Version, &summary.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &summary, nil
}

// SummaryVersions returns every stored version for a submission, oldest
// first. Regeneration keeps prior versions retrievable.
func (s *Service) SummaryVersions(ctx context.Context, fileID string) ([]*models.Summary, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, errors.New("file id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, summary_text, version, created_at
		 FROM summaries WHERE document_id = ? ORDER BY version ASC`, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*models.Summary
	for rows.Next() {
		var summary models.Summary
		if err := rows.Scan(&summary.ID, &summary.DocumentID, &summary.SummaryText, &summary.Version, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}
