package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vladimiradmaev/profile-switcher/internal/catalogue"
	"github.com/vladimiradmaev/profile-switcher/internal/domain"
)

const (
	minute = int64(60 * 1000)
	hour   = 60 * minute
)

// t0 is 2024-03-10 08:00:00 UTC
var t0 = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC).UnixMilli()

var _ domain.SwitchHistoryStore = (*fakeStore)(nil)

// fakeStore is an in-memory history with call counters
type fakeStore struct {
	mu      sync.Mutex
	records []domain.SwitchRecord

	effectiveCalls atomic.Int64
	upsertCalls    atomic.Int64

	effectiveErr error
	upsertErr    error
	delay        time.Duration
}

func (f *fakeStore) EffectiveAt(ctx context.Context, t int64) (*domain.SwitchRecord, error) {
	f.effectiveCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.effectiveErr != nil {
		return nil, f.effectiveErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.SwitchRecord
	for i := range f.records {
		r := &f.records[i]
		if r.ActiveAt(t) && (best == nil || r.Timestamp > best.Timestamp) {
			best = r
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best.Clone(), nil
}

func (f *fakeStore) LatestPermanentBefore(ctx context.Context, t int64) (*domain.SwitchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.SwitchRecord
	for i := range f.records {
		r := &f.records[i]
		if r.IsPermanent() && r.Timestamp <= t && (best == nil || r.Timestamp > best.Timestamp) {
			best = r
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best.Clone(), nil
}

func (f *fakeStore) Upsert(ctx context.Context, record *domain.SwitchRecord) (*domain.UpsertResult, error) {
	f.upsertCalls.Add(1)
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].Timestamp == record.Timestamp {
			f.records[i] = *record.Clone()
			return &domain.UpsertResult{Updated: []domain.SwitchRecord{*record.Clone()}}, nil
		}
	}
	f.records = append(f.records, *record.Clone())
	return &domain.UpsertResult{Inserted: []domain.SwitchRecord{*record.Clone()}}, nil
}

func (f *fakeStore) add(records ...*domain.SwitchRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		f.records = append(f.records, *r.Clone())
	}
}

// fixedClock is a settable clock shared by the components under test
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(millis int64) *fixedClock {
	return &fixedClock{t: time.UnixMilli(millis).UTC()}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(millis int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = time.UnixMilli(millis).UTC()
}

type staticProviders struct {
	limits  domain.HardLimits
	pump    domain.PumpCapabilities
	insulin domain.InsulinConfiguration
}

func (p *staticProviders) HardLimits() domain.HardLimits                     { return p.limits }
func (p *staticProviders) Capabilities() domain.PumpCapabilities             { return p.pump }
func (p *staticProviders) InsulinConfiguration() domain.InsulinConfiguration { return p.insulin }

func newProviders() *staticProviders {
	return &staticProviders{
		limits: domain.HardLimits{
			MinPercentage:      30,
			MaxPercentage:      200,
			MaxDurationMinutes: 24 * 60,
			MinISF:             2,
			MaxISF:             1000,
			MinIC:              2,
			MaxIC:              100,
			MinTarget:          80,
			MaxTarget:          200,
			MinDIA:             5,
			MaxDIA:             10,
			MaxBasal:           10,
		},
		pump: domain.PumpCapabilities{
			BasalStep:        0.01,
			BasalMinimumRate: 0.04,
			BasalMaximumRate: 25,
		},
		insulin: domain.InsulinConfiguration{Label: "Rapid-Acting Oref", PeakMillis: 75 * minute},
	}
}

func defaultDefinition() domain.ProfileDefinition {
	return domain.ProfileDefinition{
		Name:         "Default",
		GlucoseUnit:  domain.UnitMGDL,
		DIA:          5,
		BasalBlocks:  []domain.Block{{DurationMillis: domain.DayMillis, Amount: 1.0}},
		ISFBlocks:    []domain.Block{{DurationMillis: domain.DayMillis, Amount: 50}},
		ICBlocks:     []domain.Block{{DurationMillis: domain.DayMillis, Amount: 10}},
		TargetBlocks: []domain.TargetBlock{{DurationMillis: domain.DayMillis, LowTarget: 100, HighTarget: 110}},
	}
}

func nightDefinition() domain.ProfileDefinition {
	return domain.ProfileDefinition{
		Name:         "Night",
		GlucoseUnit:  domain.UnitMMOL,
		DIA:          6,
		BasalBlocks:  []domain.Block{{DurationMillis: 6 * hour, Amount: 0.6}, {DurationMillis: 18 * hour, Amount: 0.9}},
		ISFBlocks:    []domain.Block{{DurationMillis: domain.DayMillis, Amount: 2.8}},
		ICBlocks:     []domain.Block{{DurationMillis: domain.DayMillis, Amount: 12}},
		TargetBlocks: []domain.TargetBlock{{DurationMillis: domain.DayMillis, LowTarget: 5.5, HighTarget: 6.5}},
	}
}

func newTestCatalogue() *catalogue.Memory {
	return catalogue.NewMemory(defaultDefinition(), nightDefinition())
}

// record builds a committed-looking switch for the Default profile with the given basal
func record(ts, duration int64, basal float64) *domain.SwitchRecord {
	def := defaultDefinition()
	def.BasalBlocks[0].Amount = basal
	return &domain.SwitchRecord{
		ID:             "rec",
		Timestamp:      ts,
		ProfileName:    def.Name,
		GlucoseUnit:    def.GlucoseUnit,
		BasalBlocks:    def.BasalBlocks,
		ISFBlocks:      def.ISFBlocks,
		ICBlocks:       def.ICBlocks,
		TargetBlocks:   def.TargetBlocks,
		Percentage:     100,
		DurationMillis: duration,
		Insulin:        domain.InsulinConfiguration{EndMillis: 5 * hour},
	}
}

// harness wires every component the way main does, around a fake store
type harness struct {
	store     *fakeStore
	clock     *fixedClock
	providers *staticProviders
	catalogue *catalogue.Memory
	resolver  *EffectiveProfileResolver
	factory   *SwitchFactory
	committer *SwitchCommitter
	service   *ProfileSwitchService
}

func newHarness(now int64) *harness {
	h := &harness{
		store:     &fakeStore{},
		clock:     newClock(now),
		providers: newProviders(),
		catalogue: newTestCatalogue(),
	}
	resolver, err := NewEffectiveProfileResolver(h.store, 100, WithClock(h.clock.Now))
	if err != nil {
		panic(err)
	}
	h.resolver = resolver
	h.factory = NewSwitchFactory(h.catalogue, h.store, h.providers)
	h.factory.now = h.clock.Now
	h.committer = NewSwitchCommitter(h.store, h.resolver)
	h.service = NewProfileSwitchService(h.catalogue, h.factory, NewSafetyValidator(), h.committer, h.resolver, h.providers, h.providers)
	h.service.now = h.clock.Now
	return h
}
