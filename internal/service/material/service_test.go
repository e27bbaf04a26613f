package material

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"studypile/internal/config"
	"studypile/internal/models"
	"studypile/internal/storage"
)

func TestEnsureProfileLifecycle(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	if err := svc.EnsureProfile(ctx, "user-a", ""); err != nil {
		t.Fatalf("ensure without email: %v", err)
	}
	profile, err := svc.GetProfile(ctx, "user-a")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Email != nil {
		t.Fatalf("expected null email, got %q", *profile.Email)
	}

	if err := svc.EnsureProfile(ctx, "user-a", "a@example.com"); err != nil {
		t.Fatalf("ensure with email: %v", err)
	}
	profile, err = svc.GetProfile(ctx, "user-a")
	if err != nil {
		t.Fatalf("get profile after backfill: %v", err)
	}
	if profile.Email == nil || *profile.Email != "a@example.com" {
		t.Fatalf("email not backfilled: %+v", profile)
	}

	// A later token carrying a different email must not overwrite.
	if err := svc.EnsureProfile(ctx, "user-a", "other@example.com"); err != nil {
		t.Fatalf("ensure with second email: %v", err)
	}
	profile, err = svc.GetProfile(ctx, "user-a")
	if err != nil {
		t.Fatalf("get profile after second ensure: %v", err)
	}
	if profile.Email == nil || *profile.Email != "a@example.com" {
		t.Fatalf("backfilled email overwritten: %+v", profile)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users_profile WHERE uid = ?`, "user-a").Scan(&count); err != nil {
		t.Fatalf("count profiles: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single profile row, got %d", count)
	}
}

func TestCreateAndListSubmissions(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		sub := &models.Submission{
			FileID:      ids[i],
			OwnerUID:    "user-a",
			FileName:    "notes.pdf",
			FileType:    models.KindPDF,
			StoragePath: "users/user-a/uploads/" + ids[i] + ".pdf",
			UploadTime:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := svc.CreateSubmission(ctx, sub); err != nil {
			t.Fatalf("create submission %d: %v", i, err)
		}
	}
	other := &models.Submission{
		FileID:      uuid.NewString(),
		OwnerUID:    "user-b",
		FileName:    "notes.pdf",
		FileType:    models.KindPDF,
		StoragePath: "users/user-b/uploads/other.pdf",
		UploadTime:  base.Add(time.Hour),
	}
	if err := svc.CreateSubmission(ctx, other); err != nil {
		t.Fatalf("create other-user submission: %v", err)
	}

	subs, err := svc.ListSubmissions(ctx, "user-a")
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 submissions, got %d", len(subs))
	}
	if subs[0].FileID != ids[2] || subs[2].FileID != ids[0] {
		t.Fatalf("submissions not ordered most recent first: %+v", subs)
	}
	for _, sub := range subs {
		if sub.OwnerUID != "user-a" {
			t.Fatalf("foreign submission leaked into listing: %+v", sub)
		}
	}

	var companions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM documents_metadata WHERE id = ?`, ids[0]).Scan(&companions); err != nil {
		t.Fatalf("count companion rows: %v", err)
	}
	if companions != 1 {
		t.Fatalf("companion row missing for submission")
	}

	if _, err := svc.GetSubmission(ctx, "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := svc.GetSubmission(ctx, ids[1])
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.FileType != models.KindPDF || got.OwnerUID != "user-a" {
		t.Fatalf("unexpected submission: %+v", got)
	}
}

func TestAppendSummaryVersioning(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	fileID := uuid.NewString()
	sub := &models.Submission{
		FileID:      fileID,
		OwnerUID:    "user-a",
		FileName:    "Text Note: mitochondria...",
		FileType:    models.KindURL,
		StoragePath: "text://" + fileID,
	}
	if err := svc.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	first, err := svc.AppendSummary(ctx, fileID, "The mitochondria is the powerhouse of the cell.")
	if err != nil {
		t.Fatalf("append first summary: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("expected version 1, got %d", first.Version)
	}

	second, err := svc.AppendSummary(ctx, fileID, "Regenerated summary.")
	if err != nil {
		t.Fatalf("append second summary: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("expected version 2, got %d", second.Version)
	}

	latest, err := svc.LatestSummary(ctx, fileID)
	if err != nil {
		t.Fatalf("latest summary: %v", err)
	}
	if latest.Version != 2 || latest.SummaryText != "Regenerated summary." {
		t.Fatalf("latest should be version 2: %+v", latest)
	}

	versions, err := svc.SummaryVersions(ctx, fileID)
	if err != nil {
		t.Fatalf("summary versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != 1 || versions[1].Version != 2 {
		t.Fatalf("versions not contiguous from 1: %+v", versions)
	}
	if versions[0].SummaryText != "The mitochondria is the powerhouse of the cell." {
		t.Fatalf("prior version rewritten: %+v", versions[0])
	}

	if _, err := svc.AppendSummary(ctx, "missing-id", "text"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown submission, got %v", err)
	}
	if _, err := svc.LatestSummary(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unsummarized submission, got %v", err)
	}
}

func TestLatestSummaryPicksMaxVersionNotLatestWrite(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	fileID := uuid.NewString()
	if err := svc.CreateSubmission(ctx, &models.Submission{
		FileID:      fileID,
		OwnerUID:    "user-a",
		FileName:    "doc.pdf",
		FileType:    models.KindPDF,
		StoragePath: "users/user-a/uploads/" + fileID + ".pdf",
	}); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	// Simulate out-of-order writes: the higher version lands first.
	old := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if _, err := db.Exec(
		`INSERT INTO summaries (id, document_id, summary_text, version, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), fileID, "version two", 2, old,
	); err != nil {
		t.Fatalf("insert v2: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO summaries (id, document_id, summary_text, version, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), fileID, "version one", 1, old.Add(time.Hour),
	); err != nil {
		t.Fatalf("insert v1: %v", err)
	}

	latest, err := svc.LatestSummary(ctx, fileID)
	if err != nil {
		t.Fatalf("latest summary: %v", err)
	}
	if latest.Version != 2 || latest.SummaryText != "version two" {
		t.Fatalf("latest must follow max version, got %+v", latest)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}
