package services

import (
	"context"
	"log/slog"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
)

// CacheInvalidator drops cached resolutions a new record may have changed
type CacheInvalidator interface {
	InvalidateFrom(timestamp int64) int
}

// SwitchCommitter persists validated switches and invalidates stale cache entries
type SwitchCommitter struct {
	store       domain.SwitchHistoryStore
	invalidator CacheInvalidator
	log         *slog.Logger
}

// NewSwitchCommitter creates a committer that invalidates through invalidator after each stored record
func NewSwitchCommitter(store domain.SwitchHistoryStore, invalidator CacheInvalidator) *SwitchCommitter {
	return &SwitchCommitter{
		store:       store,
		invalidator: invalidator,
		log:         logger.Component("switch_committer"),
	}
}

// Commit stores the candidate once. On failure the cache is left untouched and
// the previously effective switch stays authoritative. Nothing is retried.
func (c *SwitchCommitter) Commit(ctx context.Context, candidate *domain.SwitchRecord) (*domain.UpsertResult, error) {
	result, err := c.store.Upsert(ctx, candidate)
	if err != nil {
		c.log.ErrorContext(ctx, "Error while saving profile switch", "timestamp", candidate.Timestamp, "error", err)
		return nil, apperrors.NewStoreFailure(err).WithContext("timestamp", candidate.Timestamp)
	}

	for _, r := range result.Inserted {
		c.log.DebugContext(ctx, "Inserted profile switch", "id", r.ID, "timestamp", r.Timestamp, "profile", r.ProfileName)
	}
	for _, r := range result.Updated {
		c.log.DebugContext(ctx, "Updated profile switch", "id", r.ID, "timestamp", r.Timestamp, "profile", r.ProfileName)
	}

	c.invalidator.InvalidateFrom(candidate.Timestamp)
	return result, nil
}
