// Package profile exposes dosing schedules behind one read-only interface.
// A Pure profile is a plain catalogue definition; an Effective profile is a
// committed switch record with its percentage and time shift applied on lookup.
package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	"github.com/vladimiradmaev/profile-switcher/internal/utils"
)

// Kind tags which variant a Profile is
type Kind int

const (
	KindPure Kind = iota
	KindEffective
)

func (k Kind) String() string {
	if k == KindEffective {
		return "effective"
	}
	return "pure"
}

// Profile is the read-only view callers dose from
type Profile interface {
	Kind() Kind
	Units() domain.GlucoseUnit
	DIA() float64
	Percentage() int
	TimeShiftHours() int
	OriginalName() string
	CustomizedName() string

	Basal(t time.Time) float64
	Sensitivity(t time.Time) float64
	CarbRatio(t time.Time) float64
	TargetLow(t time.Time) float64
	TargetHigh(t time.Time) float64

	// BasalBlocks returns the scaled basal schedule
	BasalBlocks() []domain.Block
	TotalBasal() float64
}

// schedule holds the lookup logic shared by both variants
type schedule struct {
	units      domain.GlucoseUnit
	dia        float64
	percentage int
	shiftHours int
	basal      []domain.Block
	isf        []domain.Block
	ic         []domain.Block
	targets    []domain.TargetBlock
}

func (s *schedule) Units() domain.GlucoseUnit { return s.units }
func (s *schedule) DIA() float64              { return s.dia }
func (s *schedule) Percentage() int           { return s.percentage }
func (s *schedule) TimeShiftHours() int       { return s.shiftHours }

func (s *schedule) Basal(t time.Time) float64 {
	return blockValue(s.basal, s.offset(t)) * float64(s.percentage) / 100
}

func (s *schedule) Sensitivity(t time.Time) float64 {
	return blockValue(s.isf, s.offset(t)) * 100 / float64(s.percentage)
}

func (s *schedule) CarbRatio(t time.Time) float64 {
	return blockValue(s.ic, s.offset(t)) * 100 / float64(s.percentage)
}

func (s *schedule) TargetLow(t time.Time) float64 {
	return targetBlock(s.targets, s.offset(t)).LowTarget
}

func (s *schedule) TargetHigh(t time.Time) float64 {
	return targetBlock(s.targets, s.offset(t)).HighTarget
}

func (s *schedule) BasalBlocks() []domain.Block {
	out := make([]domain.Block, len(s.basal))
	for i, b := range s.basal {
		out[i] = domain.Block{DurationMillis: b.DurationMillis, Amount: b.Amount * float64(s.percentage) / 100}
	}
	return out
}

// TotalBasal is the daily insulin delivered by the scaled basal schedule
func (s *schedule) TotalBasal() float64 {
	var total float64
	for _, b := range s.BasalBlocks() {
		total += b.Amount * float64(b.DurationMillis) / float64(time.Hour/time.Millisecond)
	}
	return total
}

// offset is the shifted position inside the day in milliseconds
func (s *schedule) offset(t time.Time) int64 {
	seconds := utils.SecondsFromMidnight(t) + int64(s.shiftHours)*3600
	day := domain.DayMillis / 1000
	seconds = ((seconds % day) + day) % day
	return seconds * 1000
}

func blockValue(blocks []domain.Block, offset int64) float64 {
	var elapsed int64
	for _, b := range blocks {
		elapsed += b.DurationMillis
		if offset < elapsed {
			return b.Amount
		}
	}
	if len(blocks) > 0 {
		return blocks[len(blocks)-1].Amount
	}
	return 0
}

func targetBlock(blocks []domain.TargetBlock, offset int64) domain.TargetBlock {
	var elapsed int64
	for _, b := range blocks {
		elapsed += b.DurationMillis
		if offset < elapsed {
			return b
		}
	}
	if len(blocks) > 0 {
		return blocks[len(blocks)-1]
	}
	return domain.TargetBlock{}
}

// Pure is a catalogue definition without overrides
type Pure struct {
	schedule
	name string
}

// NewPure wraps a catalogue definition. Blocks are copied.
func NewPure(def *domain.ProfileDefinition) *Pure {
	return &Pure{
		name: def.Name,
		schedule: schedule{
			units:      def.GlucoseUnit,
			dia:        def.DIA,
			percentage: 100,
			basal:      domain.CopyBlocks(def.BasalBlocks),
			isf:        domain.CopyBlocks(def.ISFBlocks),
			ic:         domain.CopyBlocks(def.ICBlocks),
			targets:    domain.CopyTargetBlocks(def.TargetBlocks),
		},
	}
}

func (p *Pure) Kind() Kind             { return KindPure }
func (p *Pure) OriginalName() string   { return p.name }
func (p *Pure) CustomizedName() string { return p.name }

// Effective is a history-backed profile switch, the value the resolver caches
type Effective struct {
	schedule
	record *domain.SwitchRecord
}

// NewEffective wraps a switch record. The record is cloned so later changes to
// the caller's copy never reach the cached view.
func NewEffective(record *domain.SwitchRecord) *Effective {
	r := record.Clone()
	dia := float64(r.Insulin.EndMillis) / float64(time.Hour/time.Millisecond)
	percentage := r.Percentage
	if percentage <= 0 {
		percentage = 100
	}
	return &Effective{
		record: r,
		schedule: schedule{
			units:      r.GlucoseUnit,
			dia:        dia,
			percentage: percentage,
			shiftHours: r.TimeShiftHours,
			basal:      r.BasalBlocks,
			isf:        r.ISFBlocks,
			ic:         r.ICBlocks,
			targets:    r.TargetBlocks,
		},
	}
}

func (e *Effective) Kind() Kind           { return KindEffective }
func (e *Effective) OriginalName() string { return e.record.ProfileName }

// CustomizedName decorates the source name with active overrides, e.g. "Default (150%,+2h,60m)"
func (e *Effective) CustomizedName() string {
	return CustomizedName(e.record.ProfileName, e.record.Percentage, e.record.TimeShiftHours, e.record.DurationMillis)
}

// NameWithRemaining appends the countdown to the end of a temporary switch
func (e *Effective) NameWithRemaining(now time.Time) string {
	name := e.CustomizedName()
	if e.record.IsPermanent() {
		return name
	}
	return name + " (" + utils.FormatUntil(e.Remaining(now)) + ")"
}

// Record returns a copy of the underlying switch record
func (e *Effective) Record() *domain.SwitchRecord { return e.record.Clone() }

func (e *Effective) Timestamp() int64  { return e.record.Timestamp }
func (e *Effective) IsTemporary() bool { return !e.record.IsPermanent() }
func (e *Effective) End() int64        { return e.record.End() }

// Remaining is the time left before a temporary switch ends; zero for permanent switches
func (e *Effective) Remaining(now time.Time) time.Duration {
	if e.record.IsPermanent() {
		return 0
	}
	left := time.Duration(e.record.End()-now.UnixMilli()) * time.Millisecond
	if left < 0 {
		return 0
	}
	return left
}

// Original returns the unscaled, unshifted view of the copied schedules
func (e *Effective) Original() *Pure {
	return NewPure(&domain.ProfileDefinition{
		Name:         e.record.ProfileName,
		GlucoseUnit:  e.record.GlucoseUnit,
		DIA:          e.dia,
		BasalBlocks:  e.record.BasalBlocks,
		ISFBlocks:    e.record.ISFBlocks,
		ICBlocks:     e.record.ICBlocks,
		TargetBlocks: e.record.TargetBlocks,
	})
}

// CustomizedName builds the display name for a switch with the given overrides
func CustomizedName(name string, percentage, shiftHours int, durationMillis int64) string {
	var parts []string
	if percentage != 100 || shiftHours != 0 {
		parts = append(parts, fmt.Sprintf("%d%%", percentage))
	}
	if shiftHours != 0 {
		parts = append(parts, fmt.Sprintf("%+dh", shiftHours))
	}
	if durationMillis != 0 {
		parts = append(parts, fmt.Sprintf("%dm", durationMillis/int64(time.Minute/time.Millisecond)))
	}
	if len(parts) == 0 {
		return name
	}
	return name + " (" + strings.Join(parts, ",") + ")"
}
