package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
	"github.com/vladimiradmaev/profile-switcher/internal/profile"
)

// ApplyState is where an apply-override attempt ended
type ApplyState string

const (
	StateBuilt       ApplyState = "built"
	StateValidated   ApplyState = "validated"
	StateCommitted   ApplyState = "committed"
	StateRejected    ApplyState = "rejected"
	StateStoreFailed ApplyState = "store_failed"
)

// SwitchRequest asks for a profile override.
// An empty ProfileName re-applies the profile of the active permanent switch,
// timestamped now; such a request must leave Timestamp zero.
type SwitchRequest struct {
	ProfileName     string `json:"profile_name,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Percentage      int    `json:"percentage"`
	TimeShiftHours  int    `json:"time_shift_hours"`
	Timestamp       int64  `json:"timestamp,omitempty"` // 0 = now
}

// ApplyResult describes one attempt
type ApplyResult struct {
	State   ApplyState
	Record  *domain.SwitchRecord
	Verdict Verdict
	Upsert  *domain.UpsertResult
}

// ProfileSwitchService builds, validates and commits profile switches
type ProfileSwitchService struct {
	catalogue domain.ProfileCatalogue
	factory   *SwitchFactory
	validator *SafetyValidator
	committer *SwitchCommitter
	resolver  *EffectiveProfileResolver
	limits    domain.LimitsProvider
	pump      domain.PumpProvider
	now       func() time.Time
	log       *slog.Logger
}

// NewProfileSwitchService wires the apply pipeline; limits and pump are read on every attempt
func NewProfileSwitchService(
	catalogue domain.ProfileCatalogue,
	factory *SwitchFactory,
	validator *SafetyValidator,
	committer *SwitchCommitter,
	resolver *EffectiveProfileResolver,
	limits domain.LimitsProvider,
	pump domain.PumpProvider,
) *ProfileSwitchService {
	return &ProfileSwitchService{
		catalogue: catalogue,
		factory:   factory,
		validator: validator,
		committer: committer,
		resolver:  resolver,
		limits:    limits,
		pump:      pump,
		now:       time.Now,
		log:       logger.Component("profile_switch_service"),
	}
}

// Preview builds and validates the request without committing it
func (s *ProfileSwitchService) Preview(ctx context.Context, req SwitchRequest) (*ApplyResult, error) {
	record, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &ApplyResult{State: StateBuilt, Record: record}

	// Bounds are read on every attempt; they may have changed since the last one
	result.Verdict = s.validator.Validate(record, s.pump.Capabilities(), s.limits.HardLimits())
	if !result.Verdict.Valid {
		result.State = StateRejected
		return result, apperrors.NewValidationFailure(result.Verdict.Messages()).
			WithContext("profile", record.ProfileName)
	}
	result.State = StateValidated
	return result, nil
}

// Apply runs Built -> Validated -> Committed, stopping at Rejected or StoreFailed.
// A failed attempt is never retried here.
func (s *ProfileSwitchService) Apply(ctx context.Context, req SwitchRequest) (*ApplyResult, error) {
	result, err := s.Preview(ctx, req)
	if err != nil {
		if result != nil {
			s.log.WarnContext(ctx, "Profile switch rejected",
				"profile", result.Record.ProfileName,
				"reasons", result.Verdict.Messages())
		}
		return result, err
	}

	upsert, err := s.committer.Commit(ctx, result.Record)
	if err != nil {
		result.State = StateStoreFailed
		return result, err
	}

	result.State = StateCommitted
	result.Upsert = upsert
	s.log.InfoContext(ctx, "Profile switch committed",
		"profile", result.Record.ProfileName,
		"percentage", result.Record.Percentage,
		"timeshift", result.Record.TimeShiftHours,
		"duration_ms", result.Record.DurationMillis,
		"timestamp", result.Record.Timestamp)
	return result, nil
}

// Current returns the profile in effect now, or nil when none is
func (s *ProfileSwitchService) Current(ctx context.Context) (*profile.Effective, error) {
	return s.resolver.Profile(ctx)
}

func (s *ProfileSwitchService) build(ctx context.Context, req SwitchRequest) (*domain.SwitchRecord, error) {
	if req.ProfileName == "" {
		if req.Timestamp != 0 {
			return nil, apperrors.NewValidationFailure([]string{"timestamp can only be set for a named profile switch"})
		}
		return s.factory.BuildFromActivePermanentSwitch(ctx, req.DurationMinutes, req.Percentage, req.TimeShiftHours)
	}
	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = s.now().UnixMilli()
	}
	return s.factory.Build(ctx, s.catalogue, req.ProfileName, req.DurationMinutes, req.Percentage, req.TimeShiftHours, timestamp)
}
