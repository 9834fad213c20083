package catalogue

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	"github.com/vladimiradmaev/profile-switcher/internal/utils"
)

// File is the on-disk catalogue layout
type File struct {
	Profiles []ProfileEntry `yaml:"profiles"`
}

// ProfileEntry is one named profile as written by the user
type ProfileEntry struct {
	Name   string        `yaml:"name"`
	Units  string        `yaml:"units"`
	DIA    float64       `yaml:"dia"`
	Basal  []ValueEntry  `yaml:"basal"`
	ISF    []ValueEntry  `yaml:"isf"`
	IC     []ValueEntry  `yaml:"ic"`
	Target []TargetEntry `yaml:"target"`
}

// ValueEntry starts a block at Time ("HH:MM") that lasts until the next entry
type ValueEntry struct {
	Time  string  `yaml:"time"`
	Value float64 `yaml:"value"`
}

type TargetEntry struct {
	Time string  `yaml:"time"`
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// MaxNameLength bounds profile names in bytes
const MaxNameLength = 64

// LoadFile reads and parses a catalogue file
func LoadFile(path string) ([]domain.ProfileDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogue %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes catalogue YAML into profile definitions
func Parse(data []byte) ([]domain.ProfileDefinition, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue: %w", err)
	}

	seen := make(map[string]bool)
	defs := make([]domain.ProfileDefinition, 0, len(file.Profiles))
	for _, entry := range file.Profiles {
		if seen[entry.Name] {
			return nil, fmt.Errorf("duplicate profile %q", entry.Name)
		}
		seen[entry.Name] = true

		def, err := entry.toDefinition()
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", entry.Name, err)
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

func (e ProfileEntry) toDefinition() (*domain.ProfileDefinition, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if len(e.Name) > MaxNameLength {
		return nil, fmt.Errorf("name is longer than %d bytes", MaxNameLength)
	}
	units := domain.GlucoseUnit(e.Units)
	if !units.Valid() {
		return nil, fmt.Errorf("unknown units %q", e.Units)
	}
	if e.DIA <= 0 {
		return nil, fmt.Errorf("dia must be positive")
	}

	basal, err := valueBlocks("basal", e.Basal)
	if err != nil {
		return nil, err
	}
	isf, err := valueBlocks("isf", e.ISF)
	if err != nil {
		return nil, err
	}
	ic, err := valueBlocks("ic", e.IC)
	if err != nil {
		return nil, err
	}
	targets, err := targetBlocks(e.Target)
	if err != nil {
		return nil, err
	}

	return &domain.ProfileDefinition{
		Name:         e.Name,
		GlucoseUnit:  units,
		DIA:          e.DIA,
		BasalBlocks:  basal,
		ISFBlocks:    isf,
		ICBlocks:     ic,
		TargetBlocks: targets,
	}, nil
}

// blockDurations converts start times to consecutive durations covering exactly one day
func blockDurations(schedule string, starts []string) ([]int64, error) {
	if len(starts) == 0 {
		return nil, fmt.Errorf("%s schedule is empty", schedule)
	}

	offsets := make([]int64, len(starts))
	for i, s := range starts {
		offset, err := utils.ParseClock(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schedule, err)
		}
		if offset >= domain.DayMillis {
			return nil, fmt.Errorf("%s: block cannot start at %s", schedule, s)
		}
		offsets[i] = offset
	}
	if !sort.SliceIsSorted(offsets, func(i, j int) bool { return offsets[i] < offsets[j] }) {
		return nil, fmt.Errorf("%s: blocks must be listed in time order", schedule)
	}
	if offsets[0] != 0 {
		return nil, fmt.Errorf("%s: first block must start at 00:00", schedule)
	}

	durations := make([]int64, len(offsets))
	for i := range offsets {
		end := domain.DayMillis
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if end <= offsets[i] {
			return nil, fmt.Errorf("%s: blocks overlap at %s", schedule, utils.FormatClock(offsets[i]))
		}
		durations[i] = end - offsets[i]
	}
	return durations, nil
}

func valueBlocks(schedule string, entries []ValueEntry) ([]domain.Block, error) {
	starts := make([]string, len(entries))
	for i, e := range entries {
		if e.Value <= 0 {
			return nil, fmt.Errorf("%s: value at %s must be positive", schedule, e.Time)
		}
		starts[i] = e.Time
	}
	durations, err := blockDurations(schedule, starts)
	if err != nil {
		return nil, err
	}
	blocks := make([]domain.Block, len(entries))
	for i, e := range entries {
		blocks[i] = domain.Block{DurationMillis: durations[i], Amount: e.Value}
	}
	return blocks, nil
}

func targetBlocks(entries []TargetEntry) ([]domain.TargetBlock, error) {
	starts := make([]string, len(entries))
	for i, e := range entries {
		if e.Low <= 0 || e.High < e.Low {
			return nil, fmt.Errorf("target: range at %s must satisfy 0 < low <= high", e.Time)
		}
		starts[i] = e.Time
	}
	durations, err := blockDurations("target", starts)
	if err != nil {
		return nil, err
	}
	blocks := make([]domain.TargetBlock, len(entries))
	for i, e := range entries {
		blocks[i] = domain.TargetBlock{DurationMillis: durations[i], LowTarget: e.Low, HighTarget: e.High}
	}
	return blocks, nil
}

// Memory is an in-memory ProfileCatalogue
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]domain.ProfileDefinition
}

// NewMemory creates a catalogue holding copies of defs
func NewMemory(defs ...domain.ProfileDefinition) *Memory {
	m := &Memory{profiles: make(map[string]domain.ProfileDefinition)}
	for _, def := range defs {
		m.Put(def)
	}
	return m
}

// Put adds or replaces a definition
func (m *Memory) Put(def domain.ProfileDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[def.Name] = copyDefinition(def)
}

// GetByName returns a copy of the named definition or domain.ErrNotFound
func (m *Memory) GetByName(ctx context.Context, name string) (*domain.ProfileDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.profiles[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyDefinition(def)
	return &c, nil
}

// Names lists catalogue entries in alphabetical order
func (m *Memory) Names(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.profiles))
	for name := range m.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func copyDefinition(def domain.ProfileDefinition) domain.ProfileDefinition {
	def.BasalBlocks = domain.CopyBlocks(def.BasalBlocks)
	def.ISFBlocks = domain.CopyBlocks(def.ISFBlocks)
	def.ICBlocks = domain.CopyBlocks(def.ICBlocks)
	def.TargetBlocks = domain.CopyTargetBlocks(def.TargetBlocks)
	return def
}
