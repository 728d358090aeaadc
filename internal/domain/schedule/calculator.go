package schedule

import (
	"time"

	"github.com/marketday/backend/internal/domain/shared"
)

// cutoffOffsetDays is the number of calendar days between the edit cutoff
// and the pickup day. The cutoff always lands at the very end of that day.
const cutoffOffsetDays = 2

// endOfDay is the cutoff time of day: 23:59:59.999 local time
var endOfDay = struct {
	hour, min, sec, nsec int
}{23, 59, 59, int(999 * time.Millisecond)}

// PickupCycle is one recurring weekly instance of (pickup instant, edit
// cutoff instant), derived deterministically from a reference instant and
// immutable once computed.
type PickupCycle struct {
	PickupAt     time.Time
	EditCutoffAt time.Time
}

// Remaining is the structured duration until the edit cutoff. Components are
// never negative; Passed is the sentinel for a cutoff already behind us.
type Remaining struct {
	Days    int
	Hours   int
	Minutes int
	Passed  bool
}

// Calculator computes the weekly pickup schedule. All methods are pure
// functions of the instants passed in; the calculator never reads a clock.
type Calculator struct {
	pickupWeekday time.Weekday
	pickupHour    int
	pickupMinute  int
	thresholds    Thresholds
}

// NewCalculator creates a calculator for the given pickup weekday and time
// of day. Zero-valued thresholds fall back to the defaults.
func NewCalculator(weekday time.Weekday, hour, minute int, thresholds Thresholds) *Calculator {
	if !thresholds.valid() {
		thresholds = DefaultThresholds()
	}
	return &Calculator{
		pickupWeekday: weekday,
		pickupHour:    hour,
		pickupMinute:  minute,
		thresholds:    thresholds,
	}
}

// PickupWeekday returns the configured pickup weekday
func (c *Calculator) PickupWeekday() time.Weekday {
	return c.pickupWeekday
}

// NextPickup computes the next eligible pickup instant for "now". If the
// edit cutoff for this week's occurrence has not yet passed the pickup is
// this week's; on or after the cutoff it rolls over to the next week.
func (c *Calculator) NextPickup(now time.Time) time.Time {
	days := (int(c.pickupWeekday) - int(now.Weekday()) + 7) % 7
	y, m, d := now.AddDate(0, 0, days).Date()
	candidate := time.Date(y, m, d, c.pickupHour, c.pickupMinute, 0, 0, now.Location())

	cutoff := c.cutoffFor(candidate)
	if now.After(cutoff) {
		return candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// EditCutoff returns the last instant at which an order for the given pickup
// may still be edited: 23:59:59.999 local time two calendar days before the
// pickup. A pickup off the configured weekday signals ScheduleIntegrity
// instead of silently computing a wrong cutoff.
func (c *Calculator) EditCutoff(pickup time.Time) (time.Time, error) {
	if pickup.Weekday() != c.pickupWeekday {
		return time.Time{}, shared.ErrScheduleIntegrity
	}
	return c.cutoffFor(pickup), nil
}

// cutoffFor computes the cutoff instant without the weekday check
func (c *Calculator) cutoffFor(pickup time.Time) time.Time {
	y, m, d := pickup.AddDate(0, 0, -cutoffOffsetDays).Date()
	return time.Date(y, m, d, endOfDay.hour, endOfDay.min, endOfDay.sec, endOfDay.nsec, pickup.Location())
}

// NextCycle returns the full pickup cycle for "now"
func (c *Calculator) NextCycle(now time.Time) PickupCycle {
	pickup := c.NextPickup(now)
	return PickupCycle{
		PickupAt:     pickup,
		EditCutoffAt: c.cutoffFor(pickup),
	}
}

// CanEdit reports whether the order for the given pickup may still be
// edited at "now". The cutoff instant itself is the last editable moment;
// there is no grace window.
func (c *Calculator) CanEdit(pickup, now time.Time) (bool, error) {
	cutoff, err := c.EditCutoff(pickup)
	if err != nil {
		return false, err
	}
	return !now.After(cutoff), nil
}

// TimeRemaining returns the structured duration from "now" until the edit
// cutoff of the given pickup
func (c *Calculator) TimeRemaining(pickup, now time.Time) (Remaining, error) {
	cutoff, err := c.EditCutoff(pickup)
	if err != nil {
		return Remaining{}, err
	}
	if now.After(cutoff) {
		return Remaining{Passed: true}, nil
	}

	d := cutoff.Sub(now)
	return Remaining{
		Days:    int(d / (24 * time.Hour)),
		Hours:   int(d % (24 * time.Hour) / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
	}, nil
}

// WarningLevel classifies how close "now" is to the edit cutoff of the
// given pickup
func (c *Calculator) WarningLevel(pickup, now time.Time) (WarningLevel, error) {
	cutoff, err := c.EditCutoff(pickup)
	if err != nil {
		return LevelNone, err
	}
	return c.thresholds.classify(cutoff.Sub(now)), nil
}
