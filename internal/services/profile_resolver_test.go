package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/profile"
)

func TestResolver_CachesPerSecond(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0, 0, 1.0))

	first, err := h.resolver.Resolve(ctx, t0+5000+100)
	if err != nil || first == nil {
		t.Fatalf("Resolve() = %v, %v", first, err)
	}
	second, err := h.resolver.Resolve(ctx, t0+5000+900)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Resolve() within the same second returned a different value")
	}
	if got := h.store.effectiveCalls.Load(); got != 1 {
		t.Errorf("history queried %d times, want 1", got)
	}

	if _, err := h.resolver.Resolve(ctx, t0+6000); err != nil {
		t.Fatal(err)
	}
	if got := h.store.effectiveCalls.Load(); got != 2 {
		t.Errorf("history queried %d times after next second, want 2", got)
	}
}

func TestResolver_AbsentIsNotCached(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)

	got, err := h.resolver.Resolve(ctx, t0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Resolve() on empty history = %v, want nil", got)
	}
	if h.resolver.CachedEntries() != 0 {
		t.Error("absent result was cached")
	}

	h.store.add(record(t0-hour, 0, 1.0))
	got, err = h.resolver.Resolve(ctx, t0)
	if err != nil || got == nil {
		t.Fatalf("Resolve() after history populated = %v, %v", got, err)
	}
	if h.store.effectiveCalls.Load() != 2 {
		t.Errorf("history queried %d times, want 2", h.store.effectiveCalls.Load())
	}
}

func TestResolver_NewestWinsAndFallsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	t1 := t0 + 2*hour
	d := hour
	h.store.add(record(t0, 0, 1.0), record(t1, d, 2.0))

	tests := []struct {
		name  string
		at    int64
		basal float64
	}{
		{"permanent before temporary", t0 + 30*minute, 1.0},
		{"just before temporary", t1 - 1000, 1.0},
		{"temporary start", t1, 2.0},
		{"inside temporary", t1 + d - 1000, 2.0},
		{"temporary elapsed", t1 + d, 1.0},
		{"much later", t1 + 10*hour, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.resolver.Resolve(ctx, tt.at)
			if err != nil || got == nil {
				t.Fatalf("Resolve() = %v, %v", got, err)
			}
			if basal := got.BasalBlocks()[0].Amount; basal != tt.basal {
				t.Errorf("basal = %v, want %v", basal, tt.basal)
			}
		})
	}
}

func TestResolver_PlainSwitchMatchesSourceBlocks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)

	for _, name := range []string{"Default", "Night"} {
		t.Run(name, func(t *testing.T) {
			ts := t0 + int64(len(name))*hour
			rec, err := h.factory.Build(ctx, h.catalogue, name, 0, 100, 0, ts)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := h.committer.Commit(ctx, rec); err != nil {
				t.Fatal(err)
			}

			resolved, err := h.resolver.Resolve(ctx, ts)
			if err != nil || resolved == nil {
				t.Fatalf("Resolve() = %v, %v", resolved, err)
			}
			src, _ := h.catalogue.GetByName(ctx, name)
			got := resolved.BasalBlocks()
			if len(got) != len(src.BasalBlocks) {
				t.Fatalf("block count = %d, want %d", len(got), len(src.BasalBlocks))
			}
			for i := range got {
				if got[i] != src.BasalBlocks[i] {
					t.Errorf("block %d = %+v, want %+v", i, got[i], src.BasalBlocks[i])
				}
			}
			rec2 := resolved.Record()
			if rec2.ISFBlocks[0] != src.ISFBlocks[0] || rec2.TargetBlocks[0] != src.TargetBlocks[0] {
				t.Error("isf/target blocks differ from source definition")
			}
		})
	}
}

func TestResolver_InvalidateFrom(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0, 0, 1.0))

	for _, at := range []int64{t0 + 1000, t0 + hour, t0 + hour + 500, t0 + 2*hour} {
		if _, err := h.resolver.Resolve(ctx, at); err != nil {
			t.Fatal(err)
		}
	}

	newTs := t0 + hour + 700
	h.store.add(record(newTs, 0, 1.3))
	if removed := h.resolver.InvalidateFrom(newTs); removed != 2 {
		t.Errorf("InvalidateFrom() removed %d, want 2", removed)
	}

	early, _ := h.resolver.Resolve(ctx, t0+1000)
	if early.BasalBlocks()[0].Amount != 1.0 {
		t.Errorf("entry before the new record changed: %v", early.BasalBlocks()[0].Amount)
	}
	late, _ := h.resolver.Resolve(ctx, t0+2*hour)
	if late.BasalBlocks()[0].Amount != 1.3 {
		t.Errorf("entry after the new record = %v, want 1.3", late.BasalBlocks()[0].Amount)
	}
}

func TestResolver_ConcurrentSameKeyQueriesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0, 0, 1.0))
	h.store.delay = 5 * time.Millisecond

	const workers = 32
	results := make([]*profile.Effective, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := h.resolver.Resolve(ctx, t0+int64(i))
			if err != nil {
				t.Error(err)
			}
			results[i] = got
		}(i)
	}
	wg.Wait()

	if got := h.store.effectiveCalls.Load(); got != 1 {
		t.Errorf("history queried %d times, want 1", got)
	}
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d got a different cached value", i)
		}
	}
}

func TestResolver_BoundedCache(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	store.add(record(t0, 0, 1.0))
	resolver, err := NewEffectiveProfileResolver(store, 2)
	if err != nil {
		t.Fatal(err)
	}

	for _, at := range []int64{t0, t0 + 1000, t0 + 2000} {
		if _, err := resolver.Resolve(ctx, at); err != nil {
			t.Fatal(err)
		}
	}
	if resolver.CachedEntries() != 2 {
		t.Errorf("CachedEntries() = %d, want 2", resolver.CachedEntries())
	}

	// t0 was evicted and becomes a fresh miss
	got, err := resolver.Resolve(ctx, t0)
	if err != nil || got == nil {
		t.Fatalf("Resolve() after eviction = %v, %v", got, err)
	}
	if store.effectiveCalls.Load() != 4 {
		t.Errorf("history queried %d times, want 4", store.effectiveCalls.Load())
	}
}

func TestResolver_StoreErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0, 0, 1.0))
	h.store.effectiveErr = errors.New("disk I/O error")

	_, err := h.resolver.Resolve(ctx, t0)
	if !errors.Is(err, apperrors.ErrStoreFailure) {
		t.Fatalf("Resolve() error = %v, want store failure", err)
	}

	h.store.effectiveErr = nil
	got, err := h.resolver.Resolve(ctx, t0)
	if err != nil || got == nil {
		t.Fatalf("Resolve() after recovery = %v, %v", got, err)
	}
}

func TestResolver_ProfileNames(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0 + 20*minute)
	h.store.add(record(t0-hour, 0, 1.0))
	temp := record(t0, hour, 1.0)
	temp.Percentage = 150
	h.store.add(temp)

	tests := []struct {
		name       string
		at         int64
		customized bool
		remaining  bool
		want       string
	}{
		{"original", t0 + 20*minute, false, false, "Default"},
		{"original with remaining time", t0 + 20*minute, false, true, "Default (40m)"},
		{"customized", t0 + 20*minute, true, false, "Default (150%,60m)"},
		{"customized with remaining time", t0 + 20*minute, true, true, "Default (150%,60m) (40m)"},
		{"permanent has no countdown", t0 + 2*hour, false, true, "Default"},
		{"permanent customized has no countdown", t0 + 2*hour, true, true, "Default"},
		{"nothing before history", t0 - 2*hour, true, true, NoProfileName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.resolver.ProfileNameAt(ctx, tt.at, tt.customized, tt.remaining); got != tt.want {
				t.Errorf("ProfileNameAt() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := h.resolver.CurrentProfileName(ctx, false, true); got != "Default (40m)" {
		t.Errorf("CurrentProfileName(false, true) = %q, want %q", got, "Default (40m)")
	}
}

func TestResolver_IsProfileValid(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history", func(t *testing.T) {
		h := newHarness(t0)
		if h.resolver.IsProfileValid(ctx) {
			t.Error("IsProfileValid() = true on empty history")
		}
		if got := h.resolver.CurrentProfileName(ctx, true, true); got != NoProfileName {
			t.Errorf("CurrentProfileName() = %q, want %q", got, NoProfileName)
		}
	})

	t.Run("only an expired temporary switch", func(t *testing.T) {
		h := newHarness(t0 + 2*hour)
		h.store.add(record(t0, hour, 1.0))
		if h.resolver.IsProfileValid(ctx) {
			t.Error("IsProfileValid() = true after the only switch expired")
		}
	})

	t.Run("permanent switch", func(t *testing.T) {
		h := newHarness(t0 + 2*hour)
		h.store.add(record(t0, 0, 1.0))
		if !h.resolver.IsProfileValid(ctx) {
			t.Error("IsProfileValid() = false with a permanent switch")
		}
	})
}

func TestResolver_ReturnsImmutableView(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t0)
	h.store.add(record(t0, 0, 1.0))

	first, _ := h.resolver.Resolve(ctx, t0)
	rec := first.Record()
	rec.BasalBlocks[0].Amount = 5

	again, _ := h.resolver.Resolve(ctx, t0)
	if again.BasalBlocks()[0].Amount != 1.0 {
		t.Errorf("cached profile mutated through Record(): %v", again.BasalBlocks()[0].Amount)
	}
}
