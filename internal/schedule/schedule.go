package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	// SlotMinutes is the cadence between candidate start times.
	SlotMinutes = 30
	// MaxDurationMinutes is the longest service a slot can host.
	MaxDurationMinutes = 240

	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrInvalidDuration = errors.New("invalid duration")
)

type TimeRange struct {
	Start string
	End   string
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation(DateLayout, dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse(ClockLayout, timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}

	parsed, err := time.ParseInLocation(DateLayout+" "+ClockLayout, dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return parsed, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse(ClockLayout, timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidDuration reports whether a service duration can be scheduled.
func ValidDuration(minutes int) bool {
	return minutes > 0 && minutes <= MaxDurationMinutes
}

// OnCadence reports whether timeStr is a valid clock aligned to SlotMinutes.
func OnCadence(timeStr string) bool {
	minutes, err := ParseClockToMinutes(timeStr)
	if err != nil {
		return false
	}
	return minutes%SlotMinutes == 0
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func Today(loc *time.Location, now time.Time) string {
	return now.In(loc).Format(DateLayout)
}

func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	return date.Before(startOfDay(now, loc)), nil
}

func IsToday(dateStr string, loc *time.Location, now time.Time) bool {
	return dateStr == Today(loc, now)
}

// IsSlotPast reports whether the slot start is not strictly after now.
func IsSlotPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	slot, err := ParseDateTime(dateStr, timeStr, loc)
	if err != nil {
		return false, err
	}
	return !slot.After(now.In(loc)), nil
}

// DayWindow returns the opening hours for a weekday. Sunday is closed.
func DayWindow(day time.Weekday) (TimeRange, bool) {
	switch day {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday:
		return TimeRange{Start: "09:00", End: "19:00"}, true
	case time.Saturday:
		return TimeRange{Start: "09:00", End: "14:00"}, true
	default:
		return TimeRange{}, false
	}
}

func IsClosed(dateStr string, loc *time.Location) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	_, open := DayWindow(date.Weekday())
	return !open, nil
}

// GenerateSlotsWithDuration enumerates start times on the SlotMinutes cadence
// inside the day's window such that start+duration fits before closing.
func GenerateSlotsWithDuration(dateStr string, duration int, loc *time.Location) ([]string, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return nil, err
	}
	if !ValidDuration(duration) {
		return nil, ErrInvalidDuration
	}

	window, open := DayWindow(date.Weekday())
	if !open {
		return []string{}, nil
	}

	startMin, err := ParseClockToMinutes(window.Start)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClockToMinutes(window.End)
	if err != nil {
		return nil, err
	}

	slots := make([]string, 0, (endMin-startMin)/SlotMinutes)
	for cursor := startMin; cursor+duration <= endMin; cursor += SlotMinutes {
		slots = append(slots, MinutesToClock(cursor))
	}
	return slots, nil
}

func FilterPastSlots(dateStr string, slots []string, loc *time.Location, now time.Time) ([]string, error) {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		past, err := IsSlotPast(dateStr, s, loc, now)
		if err != nil {
			return nil, err
		}
		if !past {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

func IsSlotAllowedWithDuration(dateStr, timeStr string, duration int, loc *time.Location) (bool, error) {
	slots, err := GenerateSlotsWithDuration(dateStr, duration, loc)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s == timeStr {
			return true, nil
		}
	}
	return false, nil
}

// Interval is a half-open [Start, End) range in minutes of day.
type Interval struct {
	Start int
	End   int
}

func NewInterval(timeStr string, duration int) (Interval, error) {
	start, err := ParseClockToMinutes(timeStr)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: start + duration}, nil
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

func OverlapsAny(current Interval, reserved []Interval) bool {
	for _, r := range reserved {
		if Overlaps(current, r) {
			return true
		}
	}
	return false
}

func FilterOverlapping(slots []string, duration int, reserved []Interval) ([]string, error) {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		current, err := NewInterval(s, duration)
		if err != nil {
			return nil, err
		}
		if !OverlapsAny(current, reserved) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}
