package core

import (
	"testing"
	"time"
)

func TestParsePeriodFallsBackToAll(t *testing.T) {
	cases := []struct {
		in   string
		want Period
	}{
		{"daily", PeriodDaily},
		{"weekly", PeriodWeekly},
		{"monthly", PeriodMonthly},
		{"yearly", PeriodYearly},
		{"all", PeriodAll},
		{"", PeriodAll},
		{"quarterly", PeriodAll}, // unknown selectors are not an error
		{"DAILY", PeriodAll},
	}
	for _, tc := range cases {
		if got := ParsePeriod(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestResolveRangeDaily(t *testing.T) {
	now := time.Date(2025, 9, 15, 14, 30, 0, 0, time.UTC)
	r := ResolveRange(PeriodDaily, now)
	if r == nil {
		t.Fatalf("expected range")
	}
	today := NewDate(2025, 9, 15)
	if !r.From.Equal(today.Time) || !r.To.Equal(today.Time) {
		t.Fatalf("expected [today, today], got [%s, %s]", r.From, r.To)
	}
}

func TestResolveRangeWeeklyStartsMonday(t *testing.T) {
	cases := []struct {
		now        time.Time
		from, to   Date
		describing string
	}{
		// 2025-09-15 is a Monday
		{time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), NewDate(2025, 9, 15), NewDate(2025, 9, 21), "monday"},
		{time.Date(2025, 9, 18, 10, 0, 0, 0, time.UTC), NewDate(2025, 9, 15), NewDate(2025, 9, 21), "thursday"},
		{time.Date(2025, 9, 21, 23, 59, 0, 0, time.UTC), NewDate(2025, 9, 15), NewDate(2025, 9, 21), "sunday"},
		// Week spanning a month boundary
		{time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), NewDate(2025, 9, 29), NewDate(2025, 10, 5), "month boundary"},
	}
	for _, tc := range cases {
		r := ResolveRange(PeriodWeekly, tc.now)
		if r == nil {
			t.Fatalf("%s: expected range", tc.describing)
		}
		if !r.From.Equal(tc.from.Time) || !r.To.Equal(tc.to.Time) {
			t.Fatalf("%s: expected [%s, %s], got [%s, %s]", tc.describing, tc.from, tc.to, r.From, r.To)
		}
	}
}

func TestResolveRangeMonthly(t *testing.T) {
	cases := []struct {
		now      time.Time
		from, to Date
	}{
		{time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC), NewDate(2025, 9, 1), NewDate(2025, 9, 30)},
		{time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), NewDate(2025, 2, 1), NewDate(2025, 2, 28)},
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), NewDate(2024, 2, 1), NewDate(2024, 2, 29)}, // leap year
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), NewDate(2025, 12, 1), NewDate(2025, 12, 31)},
	}
	for i, tc := range cases {
		r := ResolveRange(PeriodMonthly, tc.now)
		if r == nil {
			t.Fatalf("case %d: expected range", i)
		}
		if !r.From.Equal(tc.from.Time) || !r.To.Equal(tc.to.Time) {
			t.Fatalf("case %d: expected [%s, %s], got [%s, %s]", i, tc.from, tc.to, r.From, r.To)
		}
	}
}

func TestResolveRangeYearly(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	r := ResolveRange(PeriodYearly, now)
	if r == nil {
		t.Fatalf("expected range")
	}
	if !r.From.Equal(NewDate(2025, 1, 1).Time) || !r.To.Equal(NewDate(2025, 12, 31).Time) {
		t.Fatalf("expected [2025-01-01, 2025-12-31], got [%s, %s]", r.From, r.To)
	}
}

func TestResolveRangeAllIsNil(t *testing.T) {
	now := time.Now()
	if r := ResolveRange(PeriodAll, now); r != nil {
		t.Fatalf("expected nil range for all, got [%s, %s]", r.From, r.To)
	}
}

func TestRangeContainsBoundaries(t *testing.T) {
	r := Range{From: NewDate(2025, 9, 1), To: NewDate(2025, 9, 30)}
	if !r.Contains(NewDate(2025, 9, 1)) {
		t.Fatalf("first day of month must be included")
	}
	if !r.Contains(NewDate(2025, 9, 30)) {
		t.Fatalf("last day of month must be included")
	}
	if r.Contains(NewDate(2025, 8, 31)) {
		t.Fatalf("day before range must be excluded")
	}
	if r.Contains(NewDate(2025, 10, 1)) {
		t.Fatalf("day after range must be excluded")
	}
}

func TestRangeKey(t *testing.T) {
	var none *Range
	if none.Key() != "all" {
		t.Fatalf("nil range key should be all")
	}
	r := &Range{From: NewDate(2025, 9, 1), To: NewDate(2025, 9, 30)}
	if r.Key() != "2025-09-01..2025-09-30" {
		t.Fatalf("unexpected key %q", r.Key())
	}
}
