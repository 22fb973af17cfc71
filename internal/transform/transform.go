// Package transform converts raw extracted field values into the
// representation published on the bus.
package transform

import (
	"fmt"
	"math"
	"strconv"
)

// Mode selects how a raw field value is converted before publishing.
type Mode string

const (
	// ModeNone passes the value through unchanged.
	ModeNone Mode = "none"
	// ModePercent rescales a 0..1 fraction to 0..100. Values already
	// outside [0,1] are assumed to be on a 0..100 basis and are only
	// rounded, not rescaled.
	ModePercent Mode = "percent_0_1_to_0_100"
	// ModeSecondsToHMS renders a duration in seconds as HH:MM:SS.
	ModeSecondsToHMS Mode = "seconds_to_hms"
)

// Valid reports whether m names a known transform mode.
func Valid(m Mode) bool {
	switch m {
	case ModeNone, ModePercent, ModeSecondsToHMS:
		return true
	}
	return false
}

// Apply converts v according to mode. A nil input stays nil for every
// mode: an absent field is a valid per-frame result, not an error. A
// value that does not parse for a numeric mode is returned untouched so
// one malformed field never drops a whole frame.
func Apply(v any, mode Mode) any {
	if v == nil {
		return nil
	}
	switch mode {
	case ModePercent:
		f, ok := toFloat(v)
		if !ok {
			return v
		}
		if f >= 0 && f <= 1 {
			return round2(f * 100)
		}
		return round2(f)
	case ModeSecondsToHMS:
		f, ok := toFloat(v)
		if !ok {
			return v
		}
		s := int64(f)
		return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	default:
		return v
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// toFloat accepts the scalar types a decoded JSON frame can carry plus
// numeric strings, which some printer firmwares emit for numbers.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}
