package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
)

// SwitchFactory builds candidate switch records from catalogue entries
type SwitchFactory struct {
	catalogue domain.ProfileCatalogue
	store     domain.SwitchHistoryStore
	insulin   domain.InsulinProvider
	now       func() time.Time
}

// NewSwitchFactory creates a factory; store is only needed for re-applying the active permanent switch
func NewSwitchFactory(catalogue domain.ProfileCatalogue, store domain.SwitchHistoryStore, insulin domain.InsulinProvider) *SwitchFactory {
	return &SwitchFactory{
		catalogue: catalogue,
		store:     store,
		insulin:   insulin,
		now:       time.Now,
	}
}

// Build copies the named catalogue profile into a new switch record.
// Overrides are stored verbatim; scaling and shifting happen on lookup.
func (f *SwitchFactory) Build(ctx context.Context, catalogue domain.ProfileCatalogue, profileName string, durationMinutes, percentage, timeShiftHours int, timestamp int64) (*domain.SwitchRecord, error) {
	def, err := catalogue.GetByName(ctx, profileName)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.NewProfileNotFoundError(profileName)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err).WithContext("profile", profileName)
	}

	insulin := f.insulin.InsulinConfiguration()
	insulin.EndMillis = int64(def.DIA * float64(time.Hour/time.Millisecond))

	return &domain.SwitchRecord{
		ID:             uuid.NewString(),
		Timestamp:      timestamp,
		ProfileName:    profileName,
		GlucoseUnit:    def.GlucoseUnit,
		BasalBlocks:    domain.CopyBlocks(def.BasalBlocks),
		ISFBlocks:      domain.CopyBlocks(def.ISFBlocks),
		ICBlocks:       domain.CopyBlocks(def.ICBlocks),
		TargetBlocks:   domain.CopyTargetBlocks(def.TargetBlocks),
		Percentage:     percentage,
		TimeShiftHours: timeShiftHours,
		DurationMillis: int64(durationMinutes) * int64(time.Minute/time.Millisecond),
		Insulin:        insulin,
	}, nil
}

// BuildFromActivePermanentSwitch re-applies the profile of the latest permanent
// switch with new overrides, timestamped now
func (f *SwitchFactory) BuildFromActivePermanentSwitch(ctx context.Context, durationMinutes, percentage, timeShiftHours int) (*domain.SwitchRecord, error) {
	now := f.now().UnixMilli()
	active, err := f.store.LatestPermanentBefore(ctx, now)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.NewNoActiveProfileError()
	}
	if err != nil {
		return nil, apperrors.NewStoreFailure(err)
	}
	return f.Build(ctx, f.catalogue, active.ProfileName, durationMinutes, percentage, timeShiftHours, now)
}
