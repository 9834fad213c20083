package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	apperrors "github.com/vladimiradmaev/profile-switcher/internal/errors"
	"github.com/vladimiradmaev/profile-switcher/internal/logger"
	"github.com/vladimiradmaev/profile-switcher/internal/profile"
	"github.com/vladimiradmaev/profile-switcher/internal/utils"
)

// NoProfileName is shown when no switch governs the requested time
const NoProfileName = "No profile selected"

// DefaultCacheSize covers four hours of second-granularity lookups
const DefaultCacheSize = 4 * 3600

// EffectiveProfileResolver answers which profile switch governs a given instant.
//
// Results are memoized per second. One mutex covers lookup, miss-fill and
// invalidation, so concurrent callers never query history twice for the same
// key and never observe an entry that a commit has already invalidated.
type EffectiveProfileResolver struct {
	store domain.SwitchHistoryStore
	now   func() time.Time

	mu    sync.Mutex
	cache *simplelru.LRU[int64, *profile.Effective]

	log *slog.Logger
}

// ResolverOption customizes an EffectiveProfileResolver
type ResolverOption func(*EffectiveProfileResolver)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) ResolverOption {
	return func(r *EffectiveProfileResolver) {
		r.now = now
	}
}

// NewEffectiveProfileResolver creates a resolver holding at most cacheSize entries
func NewEffectiveProfileResolver(store domain.SwitchHistoryStore, cacheSize int, opts ...ResolverOption) (*EffectiveProfileResolver, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := simplelru.NewLRU[int64, *profile.Effective](cacheSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}

	r := &EffectiveProfileResolver{
		store: store,
		now:   time.Now,
		cache: cache,
		log:   logger.Component("profile_resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the profile governing timeMillis, or nil when history has none.
// Absent results are not cached, so a later commit is picked up on the next call.
func (r *EffectiveProfileResolver) Resolve(ctx context.Context, timeMillis int64) (*profile.Effective, error) {
	key := utils.RoundDownToSecond(timeMillis)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	record, err := r.store.EffectiveAt(ctx, timeMillis)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreFailure(err).WithContext("time", timeMillis)
	}

	resolved := profile.NewEffective(record)
	r.cache.Add(key, resolved)
	return resolved, nil
}

// Profile resolves the profile in effect now
func (r *EffectiveProfileResolver) Profile(ctx context.Context) (*profile.Effective, error) {
	return r.Resolve(ctx, r.now().UnixMilli())
}

// InvalidateFrom drops cached entries a record starting at timestamp could change.
// The second containing timestamp is dropped too, since its entry may predate the record.
func (r *EffectiveProfileResolver) InvalidateFrom(timestamp int64) int {
	from := utils.RoundDownToSecond(timestamp)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for _, key := range r.cache.Keys() {
		if key >= from {
			r.cache.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		r.log.Debug("Invalidated cached profiles", "from", from, "removed", removed)
	}
	return removed
}

// CachedEntries returns the number of memoized keys
func (r *EffectiveProfileResolver) CachedEntries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Len()
}

// ProfileNameAt returns the display name of the profile governing timeMillis
func (r *EffectiveProfileResolver) ProfileNameAt(ctx context.Context, timeMillis int64, customized, withRemainingTime bool) string {
	resolved, err := r.Resolve(ctx, timeMillis)
	if err != nil {
		r.log.Error("Failed to resolve profile name", "error", err)
		return NoProfileName
	}
	if resolved == nil {
		return NoProfileName
	}

	name := resolved.OriginalName()
	if customized {
		name = resolved.CustomizedName()
	}
	if withRemainingTime && resolved.IsTemporary() {
		name += " (" + utils.FormatUntil(resolved.Remaining(time.UnixMilli(timeMillis))) + ")"
	}
	return name
}

// CurrentProfileName returns the display name of the profile in effect now
func (r *EffectiveProfileResolver) CurrentProfileName(ctx context.Context, customized, withRemainingTime bool) string {
	return r.ProfileNameAt(ctx, r.now().UnixMilli(), customized, withRemainingTime)
}

// IsProfileValid reports whether any profile governs now
func (r *EffectiveProfileResolver) IsProfileValid(ctx context.Context) bool {
	resolved, err := r.Profile(ctx)
	return err == nil && resolved != nil
}
