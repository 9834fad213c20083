package utils

import (
	"fmt"
	"time"
)

// ParseClock converts an "HH:MM" string to milliseconds since midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(clock string) (int64, error) {
	if clock == "24:00" {
		return int64(24 * time.Hour / time.Millisecond), nil
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return int64(t.Hour())*int64(time.Hour/time.Millisecond) + int64(t.Minute())*int64(time.Minute/time.Millisecond), nil
}

// FormatClock renders milliseconds since midnight as "HH:MM"
func FormatClock(millis int64) string {
	minutes := millis / int64(time.Minute/time.Millisecond)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SecondsFromMidnight returns the seconds elapsed since local midnight of t
func SecondsFromMidnight(t time.Time) int64 {
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// FormatUntil renders a countdown like "45m" or "1h 05m". Elapsed durations render as "0m".
func FormatUntil(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64((d + time.Minute - 1) / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// RoundDownToSecond truncates epoch milliseconds to the containing second
func RoundDownToSecond(millis int64) int64 {
	return millis - millis%1000
}
