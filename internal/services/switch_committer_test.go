package services

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
)

type countingInvalidator struct {
	calls []int64
}

func (c *countingInvalidator) InvalidateFrom(timestamp int64) int {
	c.calls = append(c.calls, timestamp)
	return 0
}

func TestSwitchCommitter_Commit(t *testing.T) {
	ctx := context.Background()

	t.Run("insert then update same timestamp", func(t *testing.T) {
		store := &fakeStore{}
		inv := &countingInvalidator{}
		committer := NewSwitchCommitter(store, inv)

		first, err := committer.Commit(ctx, record(t0, 0, 1.0))
		if err != nil {
			t.Fatal(err)
		}
		if len(first.Inserted) != 1 || len(first.Updated) != 0 {
			t.Errorf("first commit = %+v, want one insert", first)
		}

		second, err := committer.Commit(ctx, record(t0, 0, 1.2))
		if err != nil {
			t.Fatal(err)
		}
		if len(second.Updated) != 1 || len(second.Inserted) != 0 {
			t.Errorf("second commit = %+v, want one update", second)
		}
		if len(inv.calls) != 2 || inv.calls[0] != t0 || inv.calls[1] != t0 {
			t.Errorf("invalidations = %v, want [t0 t0]", inv.calls)
		}
	})

	t.Run("store failure leaves cache alone", func(t *testing.T) {
		store := &fakeStore{upsertErr: errors.New("database is locked")}
		inv := &countingInvalidator{}
		committer := NewSwitchCommitter(store, inv)

		_, err := committer.Commit(ctx, record(t0, 0, 1.0))
		if !errors.Is(err, apperrors.ErrStoreFailure) {
			t.Fatalf("Commit() error = %v, want store failure", err)
		}
		if len(inv.calls) != 0 {
			t.Errorf("invalidated %v after a failed commit", inv.calls)
		}
		if store.upsertCalls.Load() != 1 {
			t.Errorf("upsert attempted %d times, want 1", store.upsertCalls.Load())
		}
	})
}

func TestSwitchCommitter_InvalidatesResolverFromTimestamp(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0, 0, 1.0))

	before, after := t0+10*minute, t0+2*hour
	for _, at := range []int64{before, after} {
		if _, err := h.resolver.Resolve(ctx, at); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := h.committer.Commit(ctx, record(t0+hour, 0, 0.7)); err != nil {
		t.Fatal(err)
	}
	if h.resolver.CachedEntries() != 1 {
		t.Errorf("CachedEntries() = %d, want 1", h.resolver.CachedEntries())
	}

	got, _ := h.resolver.Resolve(ctx, after)
	if got.BasalBlocks()[0].Amount != 0.7 {
		t.Errorf("basal after commit = %v, want 0.7", got.BasalBlocks()[0].Amount)
	}
	got, _ = h.resolver.Resolve(ctx, before)
	if got.BasalBlocks()[0].Amount != 1.0 {
		t.Errorf("basal before commit = %v, want 1.0", got.BasalBlocks()[0].Amount)
	}
}
