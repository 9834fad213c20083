package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
)

func TestProfileSwitchService_TemporaryOverrideLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0-2*hour, 0, 1.0))

	result, err := h.service.Apply(ctx, SwitchRequest{ProfileName: "Default", DurationMinutes: 60, Percentage: 150})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if result.State != StateCommitted {
		t.Fatalf("State = %s, want %s", result.State, StateCommitted)
	}
	if result.Upsert == nil || len(result.Upsert.Inserted) != 1 {
		t.Errorf("Upsert = %+v, want one insert", result.Upsert)
	}

	h.clock.Set(t0 + 30*minute)
	current, err := h.service.Current(ctx)
	if err != nil || current == nil {
		t.Fatalf("Current() = %v, %v", current, err)
	}
	now := time.UnixMilli(t0 + 30*minute)
	if got := current.Basal(now); got != 1.5 {
		t.Errorf("Basal() = %v, want 1.5", got)
	}
	if got := current.Remaining(now); got != 30*time.Minute {
		t.Errorf("Remaining() = %v, want 30m", got)
	}
	if got := h.resolver.CurrentProfileName(ctx, true, true); got != "Default (150%,60m) (30m)" {
		t.Errorf("CurrentProfileName() = %q", got)
	}

	h.clock.Set(t0 + 61*minute)
	current, err = h.service.Current(ctx)
	if err != nil || current == nil {
		t.Fatalf("Current() after expiry = %v, %v", current, err)
	}
	if got := current.Basal(time.UnixMilli(t0 + 61*minute)); got != 1.0 {
		t.Errorf("Basal() after expiry = %v, want 1.0", got)
	}
	if current.IsTemporary() {
		t.Error("expired override still in effect")
	}
}

func TestProfileSwitchService_ApplyFailures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		req       SwitchRequest
		storeErr  error
		wantErr   error
		wantState ApplyState
		wantCode  string
	}{
		{
			name:    "unknown profile",
			req:     SwitchRequest{ProfileName: "Missing", Percentage: 100},
			wantErr: apperrors.ErrProfileNotFound,
		},
		{
			name:      "percentage over limit",
			req:       SwitchRequest{ProfileName: "Default", DurationMinutes: 60, Percentage: 500},
			wantErr:   apperrors.ErrValidationFailure,
			wantState: StateRejected,
			wantCode:  ReasonPercentage,
		},
		{
			name:      "duration over limit",
			req:       SwitchRequest{ProfileName: "Default", DurationMinutes: 25 * 60, Percentage: 100},
			wantErr:   apperrors.ErrValidationFailure,
			wantState: StateRejected,
			wantCode:  ReasonDuration,
		},
		{
			name:    "timestamp on relative request",
			req:     SwitchRequest{DurationMinutes: 60, Percentage: 120, Timestamp: t0 - hour},
			wantErr: apperrors.ErrValidationFailure,
		},
		{
			name:      "store failure",
			req:       SwitchRequest{ProfileName: "Default", DurationMinutes: 60, Percentage: 120},
			storeErr:  errors.New("connection reset"),
			wantErr:   apperrors.ErrStoreFailure,
			wantState: StateStoreFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t0)
			h.store.add(record(t0-2*hour, 0, 1.0))
			h.store.upsertErr = tt.storeErr

			result, err := h.service.Apply(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantState == "" {
				if result != nil {
					t.Errorf("Apply() result = %+v, want nil", result)
				}
			} else if result == nil || result.State != tt.wantState {
				t.Fatalf("Apply() result = %+v, want state %s", result, tt.wantState)
			}
			if tt.wantCode != "" {
				if !result.Verdict.Has(tt.wantCode) {
					t.Errorf("reasons = %v, want %s", result.Verdict.Reasons, tt.wantCode)
				}
				if len(apperrors.Reasons(err)) == 0 {
					t.Error("validation error carries no reasons")
				}
			}
			if tt.storeErr == nil && h.store.upsertCalls.Load() != 0 {
				t.Errorf("store written %d times for a declined switch", h.store.upsertCalls.Load())
			}

			// the prior permanent switch stays authoritative
			current, err := h.service.Current(ctx)
			if err != nil || current == nil {
				t.Fatalf("Current() = %v, %v", current, err)
			}
			if current.IsTemporary() || current.Percentage() != 100 {
				t.Errorf("Current() = %s, want the prior permanent switch", current.CustomizedName())
			}
		})
	}
}

func TestProfileSwitchService_PlainSwitchKeepsBlocks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)

	result, err := h.service.Apply(ctx, SwitchRequest{ProfileName: "Night", Percentage: 100})
	if err != nil {
		t.Fatal(err)
	}
	src, _ := h.catalogue.GetByName(ctx, "Night")
	rec := result.Record
	if !reflect.DeepEqual(rec.BasalBlocks, src.BasalBlocks) ||
		!reflect.DeepEqual(rec.ISFBlocks, src.ISFBlocks) ||
		!reflect.DeepEqual(rec.ICBlocks, src.ICBlocks) ||
		!reflect.DeepEqual(rec.TargetBlocks, src.TargetBlocks) {
		t.Error("committed blocks differ from the catalogue definition")
	}
	if !rec.IsPermanent() || rec.Timestamp != t0 {
		t.Errorf("record = ts %d dur %d, want permanent at t0", rec.Timestamp, rec.DurationMillis)
	}
}

func TestProfileSwitchService_PreviewDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)

	result, err := h.service.Preview(ctx, SwitchRequest{ProfileName: "Default", DurationMinutes: 30, Percentage: 80, TimeShiftHours: -2})
	if err != nil {
		t.Fatal(err)
	}
	if result.State != StateValidated {
		t.Errorf("State = %s, want %s", result.State, StateValidated)
	}
	if h.store.upsertCalls.Load() != 0 {
		t.Error("Preview() wrote to the store")
	}
	if h.resolver.IsProfileValid(ctx) {
		t.Error("previewed switch became effective")
	}
}

func TestProfileSwitchService_ReapplyActiveProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("based on permanent switch", func(t *testing.T) {
		h := newHarness(t0)
		night := record(t0-hour, 0, 0.6)
		night.ProfileName = "Night"
		h.store.add(night)

		result, err := h.service.Apply(ctx, SwitchRequest{DurationMinutes: 90, Percentage: 110})
		if err != nil {
			t.Fatal(err)
		}
		if result.Record.ProfileName != "Night" || result.Record.Timestamp != t0 {
			t.Errorf("record = %q at %d", result.Record.ProfileName, result.Record.Timestamp)
		}
		if got := h.resolver.CurrentProfileName(ctx, true, false); got != "Night (110%,90m)" {
			t.Errorf("CurrentProfileName() = %q", got)
		}
	})

	t.Run("without permanent switch", func(t *testing.T) {
		h := newHarness(t0)
		_, err := h.service.Apply(ctx, SwitchRequest{DurationMinutes: 90, Percentage: 110})
		if !errors.Is(err, apperrors.ErrNoActiveProfile) {
			t.Fatalf("Apply() error = %v, want no active profile", err)
		}
	})
}

func TestProfileSwitchService_ExplicitTimestampReplacesRecord(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0 + hour)
	h.store.add(record(t0, 0, 1.0))

	// resolve once so the entry is cached before the edit
	if _, err := h.resolver.Resolve(ctx, t0+hour); err != nil {
		t.Fatal(err)
	}

	result, err := h.service.Apply(ctx, SwitchRequest{ProfileName: "Default", Percentage: 120, Timestamp: t0})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Upsert.Updated) != 1 {
		t.Errorf("Upsert = %+v, want one update", result.Upsert)
	}

	current, _ := h.service.Current(ctx)
	if current.Percentage() != 120 {
		t.Errorf("Percentage() = %d, want 120 after update", current.Percentage())
	}
}
