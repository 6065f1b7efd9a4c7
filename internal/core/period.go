package core

import "time"

const (
	PeriodAll     Period = "all"
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

type (
	// Period is a coarse time-bucket selector applied to the current
	// moment.
	Period string

	// Range is a closed calendar-date interval. Both ends are inclusive.
	Range struct {
		From Date
		To   Date
	}
)

// ParsePeriod maps a selector string to a Period. An empty or unrecognized
// selector falls back to PeriodAll silently; this is a deliberate policy,
// not an error path.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly, PeriodAll:
		return Period(s)
	}
	return PeriodAll
}

// ResolveRange maps a period selector to the concrete date range it covers
// at the given moment. It returns nil for PeriodAll, meaning no filter.
//
// The result is meant to be computed once per request and passed by value
// to both the list read and the sum reads, so the listed transactions and
// the aggregates always cover the same population.
//
// Weeks start on Monday. This is pinned here rather than inherited from
// time.Weekday numbering (which starts on Sunday).
func ResolveRange(p Period, now time.Time) *Range {
	today := DateOf(now)
	switch p {
	case PeriodDaily:
		return &Range{From: today, To: today}
	case PeriodWeekly:
		// time.Weekday has Sunday=0; shift so Monday=0.
		offset := (int(now.Weekday()) + 6) % 7
		monday := Date{Time: today.AddDate(0, 0, -offset)}
		sunday := Date{Time: monday.AddDate(0, 0, 6)}
		return &Range{From: monday, To: sunday}
	case PeriodMonthly:
		first := NewDate(now.Year(), int(now.Month()), 1)
		last := Date{Time: first.AddDate(0, 1, -1)}
		return &Range{From: first, To: last}
	case PeriodYearly:
		return &Range{
			From: NewDate(now.Year(), 1, 1),
			To:   NewDate(now.Year(), 12, 31),
		}
	}
	return nil
}

// Contains reports whether d falls within the range, inclusive both ends.
func (r Range) Contains(d Date) bool {
	return !d.Before(r.From.Time) && !d.After(r.To.Time)
}

// Key returns a stable string form of the range, used as a cache key.
func (r *Range) Key() string {
	if r == nil {
		return "all"
	}
	return r.From.String() + ".." + r.To.String()
}
