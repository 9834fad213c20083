package services

import (
	"fmt"
	"math"
	"time"

	"github.com/vladimiradmaev/profile-switcher/internal/domain"
	"github.com/vladimiradmaev/profile-switcher/internal/utils"
)

// Reason codes reported by SafetyValidator
const (
	ReasonPercentage     = "percentage"
	ReasonTimeShift      = "timeshift"
	ReasonDuration       = "duration"
	ReasonSchedule       = "schedule"
	ReasonDIA            = "dia"
	ReasonBasalMin       = "basal_min"
	ReasonBasalMax       = "basal_max"
	ReasonBasalAlignment = "basal_alignment"
	ReasonISF            = "isf"
	ReasonIC             = "ic"
	ReasonTarget         = "target"
)

const maxTimeShiftHours = 23

// Reason explains one failed check
type Reason struct {
	Code    string
	Message string
}

// Verdict is the outcome of validating a candidate switch
type Verdict struct {
	Valid   bool
	Reasons []Reason
}

// Messages returns the human-readable reasons
func (v Verdict) Messages() []string {
	out := make([]string, len(v.Reasons))
	for i, r := range v.Reasons {
		out[i] = r.Message
	}
	return out
}

// Has reports whether a reason with the given code was recorded
func (v Verdict) Has(code string) bool {
	for _, r := range v.Reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

func (v *Verdict) add(code, format string, args ...any) {
	// one reason per code keeps long schedules readable
	if v.Has(code) {
		return
	}
	v.Valid = false
	v.Reasons = append(v.Reasons, Reason{Code: code, Message: fmt.Sprintf(format, args...)})
}

// SafetyValidator checks candidate switches against pump capabilities and hard limits.
// It has no state and performs no I/O.
type SafetyValidator struct{}

// NewSafetyValidator returns the stateless validator
func NewSafetyValidator() *SafetyValidator {
	return &SafetyValidator{}
}

// Validate runs every check and collects all failures
func (SafetyValidator) Validate(candidate *domain.SwitchRecord, pump domain.PumpCapabilities, limits domain.HardLimits) Verdict {
	v := Verdict{Valid: true}

	pct := candidate.Percentage
	if pct < limits.MinPercentage || pct > limits.MaxPercentage {
		v.add(ReasonPercentage, "percentage %d%% outside allowed range %d-%d%%", pct, limits.MinPercentage, limits.MaxPercentage)
	}
	if candidate.TimeShiftHours < -maxTimeShiftHours || candidate.TimeShiftHours > maxTimeShiftHours {
		v.add(ReasonTimeShift, "time shift %dh outside allowed range -%d..%dh", candidate.TimeShiftHours, maxTimeShiftHours, maxTimeShiftHours)
	}
	maxDuration := int64(limits.MaxDurationMinutes) * int64(time.Minute/time.Millisecond)
	if candidate.DurationMillis < 0 || candidate.DurationMillis > maxDuration {
		v.add(ReasonDuration, "duration %d min outside allowed range 0-%d min", candidate.DurationMillis/int64(time.Minute/time.Millisecond), limits.MaxDurationMinutes)
	}
	if !candidate.GlucoseUnit.Valid() {
		v.add(ReasonSchedule, "unknown glucose unit %q", candidate.GlucoseUnit)
	}

	checkCoverage(&v, "basal", blockDurations(candidate.BasalBlocks))
	checkCoverage(&v, "isf", blockDurations(candidate.ISFBlocks))
	checkCoverage(&v, "ic", blockDurations(candidate.ICBlocks))
	checkCoverage(&v, "target", targetDurations(candidate.TargetBlocks))

	dia := float64(candidate.Insulin.EndMillis) / float64(time.Hour/time.Millisecond)
	if dia < limits.MinDIA || dia > limits.MaxDIA {
		v.add(ReasonDIA, "insulin action %.1fh outside allowed range %.1f-%.1fh", dia, limits.MinDIA, limits.MaxDIA)
	}

	// Scaled checks would divide by zero
	if pct <= 0 {
		return v
	}
	scale := float64(pct) / 100

	maxBasal := math.Min(pump.BasalMaximumRate, limits.MaxBasal)
	var offset int64
	for _, b := range candidate.BasalBlocks {
		value := b.Amount * scale
		rounded := roundToStep(value, pump.BasalStep)
		if rounded < pump.BasalMinimumRate {
			v.add(ReasonBasalMin, "basal %.2f U/h at %s below pump minimum %.2f U/h", rounded, utils.FormatClock(offset), pump.BasalMinimumRate)
		}
		if value > maxBasal {
			v.add(ReasonBasalMax, "basal %.2f U/h at %s above maximum %.2f U/h", value, utils.FormatClock(offset), maxBasal)
		}
		if pump.HourlyBasalOnly && offset%int64(time.Hour/time.Millisecond) != 0 {
			v.add(ReasonBasalAlignment, "basal block at %s is not aligned to a full hour", utils.FormatClock(offset))
		}
		offset += b.DurationMillis
	}

	unit := candidate.GlucoseUnit
	offset = 0
	for _, b := range candidate.ISFBlocks {
		isf := unit.ToMgdl(b.Amount / scale)
		if isf < limits.MinISF || isf > limits.MaxISF {
			v.add(ReasonISF, "sensitivity %.1f mg/dl/U at %s outside allowed range %.0f-%.0f", isf, utils.FormatClock(offset), limits.MinISF, limits.MaxISF)
		}
		offset += b.DurationMillis
	}

	offset = 0
	for _, b := range candidate.ICBlocks {
		ic := b.Amount / scale
		if ic < limits.MinIC || ic > limits.MaxIC {
			v.add(ReasonIC, "carb ratio %.1f g/U at %s outside allowed range %.0f-%.0f", ic, utils.FormatClock(offset), limits.MinIC, limits.MaxIC)
		}
		offset += b.DurationMillis
	}

	offset = 0
	for _, b := range candidate.TargetBlocks {
		low, high := unit.ToMgdl(b.LowTarget), unit.ToMgdl(b.HighTarget)
		if low < limits.MinTarget || high > limits.MaxTarget || low > high {
			v.add(ReasonTarget, "target %.0f-%.0f mg/dl at %s outside allowed range %.0f-%.0f", low, high, utils.FormatClock(offset), limits.MinTarget, limits.MaxTarget)
		}
		offset += b.DurationMillis
	}

	return v
}

func checkCoverage(v *Verdict, schedule string, durations []int64) {
	if len(durations) == 0 {
		v.add(ReasonSchedule, "%s schedule is empty", schedule)
		return
	}
	var total int64
	for _, d := range durations {
		if d <= 0 {
			v.add(ReasonSchedule, "%s schedule has an empty block", schedule)
			return
		}
		total += d
	}
	if total != domain.DayMillis {
		v.add(ReasonSchedule, "%s schedule covers %s instead of 24h", schedule, time.Duration(total)*time.Millisecond)
	}
}

func blockDurations(blocks []domain.Block) []int64 {
	out := make([]int64, len(blocks))
	for i, b := range blocks {
		out[i] = b.DurationMillis
	}
	return out
}

func targetDurations(blocks []domain.TargetBlock) []int64 {
	out := make([]int64, len(blocks))
	for i, b := range blocks {
		out[i] = b.DurationMillis
	}
	return out
}

func roundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Round(value/step) * step
}
