package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studypile/internal/models"
	"studypile/internal/redis"
)

// documentTTL is how long a progress document stays readable. Expiry is
// enforced by the store itself; application code never deletes documents.
const documentTTL = 24 * time.Hour

// ErrNotFound is returned both for documents that were never written and for
// documents past their TTL. Callers cannot tell the two apart.
var ErrNotFound = errors.New("status not found")

// Tracker keeps the per-submission progress document in redis. Every write
// replaces the whole document and re-arms the TTL: last write wins, there is
// no merging. Only the pipeline (and the intake path that spawns it) writes
// a given submission's document, so no further coordination is needed.
type Tracker struct {
	client *redis.Client
}

func NewTracker(client *redis.Client) *Tracker {
	return &Tracker{client: client}
}

// Set overwrites the progress document for a submission. The owner travels
// inside the document so readers can enforce ownership without a second
// lookup.
func (t *Tracker) Set(ctx context.Context, ownerUID, fileID string, step models.StageStep, message string) error {
	if t == nil || t.client == nil {
		return errors.New("status tracker not initialized")
	}
	now := time.Now().UTC()
	doc := models.ProcessingStatus{
		FileID:    fileID,
		OwnerUID:  ownerUID,
		Status:    step.Stage,
		Progress:  step.Progress,
		Message:   message,
		UpdatedAt: now,
		ExpireAt:  now.Add(documentTTL),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := t.client.Set(ctx, statusKey(fileID), data, documentTTL); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// SetError records the terminal failure state for a submission.
func (t *Tracker) SetError(ctx context.Context, ownerUID, fileID, message string) error {
	return t.Set(ctx, ownerUID, fileID, models.StageStep{Stage: models.StageError, Progress: 0}, message)
}

// Get returns the progress document, or ErrNotFound when it was never
// written or has expired. Ownership is NOT checked here: the document
// carries the owner and the caller decides between not-found and denied.
func (t *Tracker) Get(ctx context.Context, fileID string) (*models.ProcessingStatus, error) {
	if t == nil || t.client == nil {
		return nil, errors.New("status tracker not initialized")
	}
	raw, err := t.client.Get(ctx, statusKey(fileID))
	if err != nil {
		if err == redis.ErrCacheMiss {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read status: %w", err)
	}
	var doc models.ProcessingStatus
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &doc, nil
}

func statusKey(fileID string) string {
	return "status:" + fileID
}
