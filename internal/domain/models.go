package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores and catalogues when nothing matches a query
var ErrNotFound = errors.New("record not found")

// GlucoseUnit is the unit a profile expresses sensitivity and targets in
type GlucoseUnit string

const (
	UnitMGDL GlucoseUnit = "mg/dl"
	UnitMMOL GlucoseUnit = "mmol"
)

// MmolToMgdl converts mmol/l values to mg/dl
const MmolToMgdl = 18.0

// DayMillis is the length of one schedule cycle
const DayMillis = int64(24 * time.Hour / time.Millisecond)

// ToMgdl normalises a value expressed in unit u to mg/dl
func (u GlucoseUnit) ToMgdl(value float64) float64 {
	if u == UnitMMOL {
		return value * MmolToMgdl
	}
	return value
}

// Valid reports whether u is a known unit
func (u GlucoseUnit) Valid() bool {
	return u == UnitMGDL || u == UnitMMOL
}

// Block is one consecutive schedule segment starting where the previous one ended
type Block struct {
	DurationMillis int64   `json:"duration"`
	Amount         float64 `json:"amount"`
}

// TargetBlock is a schedule segment carrying a target range
type TargetBlock struct {
	DurationMillis int64   `json:"duration"`
	LowTarget      float64 `json:"low"`
	HighTarget     float64 `json:"high"`
}

// ProfileDefinition is a named schedule set owned by the profile catalogue
type ProfileDefinition struct {
	Name         string
	GlucoseUnit  GlucoseUnit
	DIA          float64 // Insulin action duration in hours
	BasalBlocks  []Block
	ISFBlocks    []Block
	ICBlocks     []Block
	TargetBlocks []TargetBlock
}

// InsulinConfiguration is the insulin action model captured when a switch is created
type InsulinConfiguration struct {
	Label      string `json:"label"`
	EndMillis  int64  `json:"end"`
	PeakMillis int64  `json:"peak"`
}

// SwitchRecord is a profile switch event. Once committed it is never mutated.
type SwitchRecord struct {
	ID             string
	Timestamp      int64 // Epoch milliseconds
	ProfileName    string
	GlucoseUnit    GlucoseUnit
	BasalBlocks    []Block
	ISFBlocks      []Block
	ICBlocks       []Block
	TargetBlocks   []TargetBlock
	Percentage     int
	TimeShiftHours int
	DurationMillis int64 // 0 means permanent
	Insulin        InsulinConfiguration
}

// IsPermanent reports whether the switch stays active until superseded
func (r *SwitchRecord) IsPermanent() bool {
	return r.DurationMillis == 0
}

// End returns the instant a temporary switch stops. Meaningless for permanent switches.
func (r *SwitchRecord) End() int64 {
	return r.Timestamp + r.DurationMillis
}

// ActiveAt reports whether the record's window covers t
func (r *SwitchRecord) ActiveAt(t int64) bool {
	if t < r.Timestamp {
		return false
	}
	return r.IsPermanent() || t < r.End()
}

// Clone returns a deep copy so callers never share block slices
func (r *SwitchRecord) Clone() *SwitchRecord {
	c := *r
	c.BasalBlocks = CopyBlocks(r.BasalBlocks)
	c.ISFBlocks = CopyBlocks(r.ISFBlocks)
	c.ICBlocks = CopyBlocks(r.ICBlocks)
	c.TargetBlocks = CopyTargetBlocks(r.TargetBlocks)
	return &c
}

// CopyBlocks copies a block slice by value
func CopyBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}

// CopyTargetBlocks copies a target block slice by value
func CopyTargetBlocks(blocks []TargetBlock) []TargetBlock {
	if blocks == nil {
		return nil
	}
	out := make([]TargetBlock, len(blocks))
	copy(out, blocks)
	return out
}

// UpsertResult lists what a store transaction inserted and updated
type UpsertResult struct {
	Inserted []SwitchRecord
	Updated  []SwitchRecord
}

// HardLimits are the clinically configured bounds. Values are in mg/dl where glucose is involved.
type HardLimits struct {
	MinPercentage      int
	MaxPercentage      int
	MaxDurationMinutes int
	MinISF             float64
	MaxISF             float64
	MinIC              float64
	MaxIC              float64
	MinTarget          float64
	MaxTarget          float64
	MinDIA             float64
	MaxDIA             float64
	MaxBasal           float64
}

// PumpCapabilities describes which basal rates the active pump can deliver
type PumpCapabilities struct {
	BasalStep        float64
	BasalMinimumRate float64
	BasalMaximumRate float64
	HourlyBasalOnly  bool
}
