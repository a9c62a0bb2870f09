package dedupe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/database"
	"github.com/rocketscience-projects/stripe-webhook-ingress/internal/models"
)

// PostgresStore persists dedupe markers in the processed_events table.
// Like the Redis backend it is shared across instances and retains markers
// indefinitely.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an already-connected, migrated database handle.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Seen(ctx context.Context, id string) (bool, error) {
	var record models.ProcessedEvent
	err := s.db.WithContext(ctx).
		Select("event_id").
		Take(&record, "event_id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	case err != nil:
		// Lookup failure, not a miss: the caller must not publish on it.
		return false, fmt.Errorf("dedupe lookup failed for %s: %w", id, err)
	default:
		return true, nil
	}
}

func (s *PostgresStore) MarkSeen(ctx context.Context, id string) error {
	record := models.ProcessedEvent{
		EventID:     id,
		ProcessedAt: time.Now().UTC(),
	}
	// ON CONFLICT DO NOTHING makes the mark an atomic check-and-set on the
	// primary key; a concurrent duplicate marker is a no-op.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to mark %s as processed: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

func (s *PostgresStore) Close() error {
	return database.Close(s.db, nil)
}
