package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/profile-switcher/internal/database"
	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
)

// SwitchStore persists profile switch history
type SwitchStore struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewSwitchStore creates a new profile switch store
func NewSwitchStore(db *gorm.DB) *SwitchStore {
	return &SwitchStore{db: db, log: logger.Component("switch_store")}
}

// EffectiveAt returns the newest switch whose window covers t
func (s *SwitchStore) EffectiveAt(ctx context.Context, t int64) (*domain.SwitchRecord, error) {
	var row database.ProfileSwitch
	err := s.db.WithContext(ctx).
		Where("switch_timestamp <= ? AND (duration_millis = 0 OR switch_timestamp + duration_millis > ?)", t, t).
		Order("switch_timestamp DESC").
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	return fromSwitchRow(&row)
}

// LatestPermanentBefore returns the newest permanent switch started at or before t
func (s *SwitchStore) LatestPermanentBefore(ctx context.Context, t int64) (*domain.SwitchRecord, error) {
	var row database.ProfileSwitch
	err := s.db.WithContext(ctx).
		Where("switch_timestamp <= ? AND duration_millis = 0", t).
		Order("switch_timestamp DESC").
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	return fromSwitchRow(&row)
}

// Upsert inserts the record, or updates the existing one with the same timestamp
func (s *SwitchStore) Upsert(ctx context.Context, record *domain.SwitchRecord) (*domain.UpsertResult, error) {
	row, err := toSwitchRow(record)
	if err != nil {
		return nil, err
	}

	result := &domain.UpsertResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing database.ProfileSwitch
		err := tx.Where("switch_timestamp = ?", record.Timestamp).First(&existing).Error
		switch {
		case err == nil:
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
			row.RecordID = existing.RecordID
			if err := tx.Save(row).Error; err != nil {
				return fmt.Errorf("failed to update profile switch: %w", err)
			}
			updated, err := fromSwitchRow(row)
			if err != nil {
				return err
			}
			result.Updated = append(result.Updated, *updated)
		case errors.Is(err, gorm.ErrRecordNotFound):
			if row.RecordID == "" {
				row.RecordID = uuid.NewString()
			}
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert profile switch: %w", err)
			}
			inserted, err := fromSwitchRow(row)
			if err != nil {
				return err
			}
			result.Inserted = append(result.Inserted, *inserted)
		default:
			return fmt.Errorf("failed to look up profile switch: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("Profile switch upserted",
		"timestamp", record.Timestamp,
		"inserted", len(result.Inserted),
		"updated", len(result.Updated))
	return result, nil
}

// History lists switches started in [from, to], oldest first
func (s *SwitchStore) History(ctx context.Context, from, to int64) ([]domain.SwitchRecord, error) {
	var rows []database.ProfileSwitch
	if err := s.db.WithContext(ctx).
		Where("switch_timestamp >= ? AND switch_timestamp <= ?", from, to).
		Order("switch_timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile switch history: %w", err)
	}

	records := make([]domain.SwitchRecord, 0, len(rows))
	for i := range rows {
		r, err := fromSwitchRow(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
