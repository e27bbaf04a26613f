package material

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"studypile/internal/models"
)

// CreateSubmission records one accepted submission: the files row plus the
// companion documents_metadata row that summaries reference. The companion
// table deliberately carries only lineage fields so summary history survives
// independent of how file metadata evolves.
func (s *Service) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if sub == nil {
		return errors.New("submission is required")
	}
	if strings.TrimSpace(sub.FileID) == "" {
		return errors.New("file id is required")
	}
	if strings.TrimSpace(sub.OwnerUID) == "" {
		return errors.New("owner uid is required")
	}
	if sub.UploadTime.IsZero() {
		sub.UploadTime = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO files (file_id, owner_uid, file_name, file_type, storage_path, upload_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.FileID, sub.OwnerUID, sub.FileName, string(sub.FileType), sub.StoragePath, sub.UploadTime,
	); err != nil {
		return fmt.Errorf("insert file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents_metadata (id, owner_uid, created_at) VALUES (?, ?, ?)`,
		sub.FileID, sub.OwnerUID, sub.UploadTime,
	); err != nil {
		return fmt.Errorf("insert document metadata: %w", err)
	}
	return nil
}

// GetSubmission loads one submission by id, regardless of owner. Callers
// compare the owner themselves so they can distinguish not-found from denied.
func (s *Service) GetSubmission(ctx context.Context, fileID string) (*models.Submission, error) {
	if strings.TrimSpace(fileID) == "" {
		return nil, errors.New("file id is required")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT file_id, owner_uid, file_name, file_type, storage_path, upload_time
		 FROM files WHERE file_id = ?`, fileID,
	)
	var (
		sub      models.Submission
		fileType string
	)
	if err := row.Scan(&sub.FileID, &sub.OwnerUID, &sub.FileName, &fileType, &sub.StoragePath, &sub.UploadTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query file: %w", err)
	}
	sub.FileType = models.FileKind(fileType)
	return &sub, nil
}

// ListSubmissions returns all submissions for an owner, most recent first.
func (s *Service) ListSubmissions(ctx context.Context, ownerUID string) ([]*models.Submission, error) {
	if strings.TrimSpace(ownerUID) == "" {
		return nil, errors.New("owner uid is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_id, owner_uid, file_name, file_type, storage_path, upload_time
		 FROM files WHERE owner_uid = ? ORDER BY upload_time DESC`, ownerUID,
	)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		var (
			sub      models.Submission
			fileType string
		)
		if err := rows.Scan(&sub.FileID, &sub.OwnerUID, &sub.FileName, &fileType, &sub.StoragePath, &sub.UploadTime); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		sub.FileType = models.FileKind(fileType)
		subs = append(subs, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return subs, nil
}
