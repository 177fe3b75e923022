package schedule

import "time"

// RecurrenceKind names the three recurrence shapes.
type RecurrenceKind string

const (
	RecurWeekly  RecurrenceKind = "weekly"
	RecurMonthly RecurrenceKind = "monthly"
	RecurOnDate  RecurrenceKind = "specific_date"
)

// Recurrence describes which calendar dates a rule applies to. It is a
// tagged variant built through Weekly, Monthly or OnDate; inconsistent
// field combinations cannot be constructed.
type Recurrence struct {
	kind    RecurrenceKind
	weekday time.Weekday
	day     int
	date    time.Time
}

// Weekly applies on every date with the given weekday.
func Weekly(d time.Weekday) Recurrence {
	return Recurrence{kind: RecurWeekly, weekday: d}
}

// Monthly applies on every date with the given day of month (1..31).
// Months with fewer days simply never match; there is no clamping.
func Monthly(day int) Recurrence {
	return Recurrence{kind: RecurMonthly, day: day}
}

// OnDate applies on exactly one calendar date.
func OnDate(date time.Time) Recurrence {
	return Recurrence{kind: RecurOnDate, date: DateOf(date)}
}

func (r Recurrence) Kind() RecurrenceKind {
	return r.kind
}

func (r Recurrence) Weekday() (time.Weekday, bool) {
	return r.weekday, r.kind == RecurWeekly
}

func (r Recurrence) DayOfMonth() (int, bool) {
	return r.day, r.kind == RecurMonthly
}

func (r Recurrence) Date() (time.Time, bool) {
	return r.date, r.kind == RecurOnDate
}

// AppliesOn reports whether the recurrence falls on the given date.
func (r Recurrence) AppliesOn(date time.Time) bool {
	date = DateOf(date)
	switch r.kind {
	case RecurWeekly:
		return date.Weekday() == r.weekday
	case RecurMonthly:
		return date.Day() == r.day
	case RecurOnDate:
		return r.date.Equal(date)
	default:
		return false
	}
}

// Expand returns every date in [from, to] (inclusive, day granularity) the
// recurrence applies to. An empty result is not an error: an out-of-range
// specific date just never shows up.
func (r Recurrence) Expand(from, to time.Time) []time.Time {
	from, to = DateOf(from), DateOf(to)
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if r.AppliesOn(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// DateOf truncates a timestamp to its calendar date. Dates are plain
// wall-clock values; UTC is used only as a neutral carrier location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
