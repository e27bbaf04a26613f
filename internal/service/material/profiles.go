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

// EnsureProfile guarantees a profile row exists for the owner before any
// state-mutating operation references it. First contact inserts a bare row;
// later contacts backfill the email once, only while it is still null.
// Safe to call concurrently for the same owner: losing the insert race is
// treated as success.
func (s *Service) EnsureProfile(ctx context.Context, uid, email string) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return errors.New("owner uid is required")
	}

	var storedEmail sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM users_profile WHERE uid = ?`, uid,
	).Scan(&storedEmail)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		now := time.Now().UTC()
		var emailVal any
		if email != "" {
			emailVal = email
		}
		_, insErr := s.db.ExecContext(ctx,
			`INSERT INTO users_profile (uid, email, display_name, preferences, created_at, updated_at)
			 VALUES (?, ?, NULL, '{}', ?, ?)`,
			uid, emailVal, now, now,
		)
		if insErr != nil {
			var exists bool
			if chk := s.db.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM users_profile WHERE uid = ?)`, uid,
			).Scan(&exists); chk == nil && exists {
				return nil
			}
			return fmt.Errorf("create profile: %w", insErr)
		}
		return nil
	case err != nil:
		return fmt.Errorf("lookup profile: %w", err)
	default:
		if !storedEmail.Valid && email != "" {
			if _, err := s.db.ExecContext(ctx,
				`UPDATE users_profile SET email = ?, updated_at = ? WHERE uid = ? AND email IS NULL`,
				email, time.Now().UTC(), uid,
			); err != nil {
				return fmt.Errorf("backfill email: %w", err)
			}
		}
		return nil
	}
}

// GetProfile returns the stored profile for an owner.
func (s *Service) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, errors.New("owner uid is required")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT uid, email, display_name, created_at, updated_at FROM users_profile WHERE uid = ?`, uid,
	)
	var (
		profile     models.UserProfile
		email       sql.NullString
		displayName sql.NullString
	)
	if err := row.Scan(&profile.UID, &email, &displayName, &profile.CreatedAt, &profile.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	if email.Valid {
		profile.Email = &email.String
	}
	if displayName.Valid {
		profile.DisplayName = &displayName.String
	}
	return &profile, nil
}
