package domain

import (
	"context"
)

// ProfileCatalogue is the read-only source of named profile definitions
type ProfileCatalogue interface {
	GetByName(ctx context.Context, name string) (*ProfileDefinition, error)
}

// SwitchHistoryStore is the time-ordered store of committed profile switches.
// Queries return ErrNotFound when no record matches.
type SwitchHistoryStore interface {
	EffectiveAt(ctx context.Context, timeMillis int64) (*SwitchRecord, error)
	LatestPermanentBefore(ctx context.Context, timeMillis int64) (*SwitchRecord, error)
	Upsert(ctx context.Context, record *SwitchRecord) (*UpsertResult, error)
}

// LimitsProvider returns the currently configured hard limits
type LimitsProvider interface {
	HardLimits() HardLimits
}

// PumpProvider returns the capabilities of the active pump
type PumpProvider interface {
	Capabilities() PumpCapabilities
}

// InsulinProvider returns the active insulin model
type InsulinProvider interface {
	InsulinConfiguration() InsulinConfiguration
}
