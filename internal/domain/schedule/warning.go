package schedule

import "time"

// WarningLevel is an ordered classification of how close "now" is to the
// edit cutoff of a pickup cycle. Higher values mean more urgent.
type WarningLevel int

const (
	// LevelNone means there is nothing left to warn about: the cutoff has passed
	LevelNone WarningLevel = iota
	// LevelInfo means the cutoff is comfortably far away
	LevelInfo
	// LevelWarning means the cutoff is within the warning band (default 24h)
	LevelWarning
	// LevelUrgent means the cutoff is within the urgent band (default 6h)
	LevelUrgent
	// LevelCritical means the cutoff is within the critical band (default 1h)
	LevelCritical
)

// String returns the string representation of the warning level
func (l WarningLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelUrgent:
		return "urgent"
	case LevelCritical:
		return "critical"
	}
	return "unknown"
}

// Thresholds holds the band boundaries for warning classification. The bands
// are configuration, not part of the calculator's core algorithm.
type Thresholds struct {
	Warning  time.Duration // remaining <= Warning  -> at least LevelWarning
	Urgent   time.Duration // remaining <= Urgent   -> at least LevelUrgent
	Critical time.Duration // remaining <= Critical -> LevelCritical
}

// DefaultThresholds returns the default warning bands: 24h / 6h / 1h
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  24 * time.Hour,
		Urgent:   6 * time.Hour,
		Critical: time.Hour,
	}
}

// valid reports whether the bands are positive and properly nested
func (t Thresholds) valid() bool {
	return t.Critical > 0 && t.Urgent > t.Critical && t.Warning > t.Urgent
}

// classify maps a remaining duration until the cutoff to a warning level
func (t Thresholds) classify(remaining time.Duration) WarningLevel {
	switch {
	case remaining < 0:
		return LevelNone
	case remaining <= t.Critical:
		return LevelCritical
	case remaining <= t.Urgent:
		return LevelUrgent
	case remaining <= t.Warning:
		return LevelWarning
	default:
		return LevelInfo
	}
}
