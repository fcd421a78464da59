package domain

import "time"

const DayLayout = "2006-01-02"

// Day truncates t to its UTC calendar day. Days are the only time resolution
// the valuation model knows about.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// TimeRange is an inclusive [Start, End] day range. A zero Start or End means
// the range is open on that side.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange normalizes start to 00:00:00 and end to 23:59:59 so that
// document-store range filters catch every record of the boundary days.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{
		Start: Day(start),
		End:   Day(end).Add(24*time.Hour - time.Second),
	}
}

// Until is the half-open range covering everything up to and including end.
func Until(end time.Time) TimeRange {
	return TimeRange{End: Day(end).Add(24*time.Hour - time.Second)}
}

// From is the half-open range covering everything on or after start.
func From(start time.Time) TimeRange {
	return TimeRange{Start: Day(start)}
}

func (r TimeRange) HasStart() bool { return !r.Start.IsZero() }
func (r TimeRange) HasEnd() bool   { return !r.End.IsZero() }

// StartDay and EndDay are the boundary calendar days.
func (r TimeRange) StartDay() time.Time { return Day(r.Start) }
func (r TimeRange) EndDay() time.Time   { return Day(r.End) }

// Days lists every calendar day of a closed range, in order.
func (r TimeRange) Days() []time.Time {
	out := []time.Time{}
	for d := r.StartDay(); !d.After(r.EndDay()); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
