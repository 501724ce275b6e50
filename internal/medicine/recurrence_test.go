package medicine

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveDayRange_ExplicitDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	day, err := ResolveDayRange("2026-03-15", now, time.UTC)
	if err != nil {
		t.Fatalf("ResolveDayRange: %v", err)
	}

	if !day.Start.Equal(date(2026, 3, 15)) {
		t.Errorf("Start = %v, want 2026-03-15 midnight", day.Start)
	}
	if !day.End.Equal(date(2026, 3, 16)) {
		t.Errorf("End = %v, want 2026-03-16 midnight", day.End)
	}
}

func TestResolveDayRange_EmptyMeansToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)

	day, err := ResolveDayRange("", now, time.UTC)
	if err != nil {
		t.Fatalf("ResolveDayRange: %v", err)
	}

	if !day.Start.Equal(date(2026, 3, 10)) {
		t.Errorf("Start = %v, want 2026-03-10 midnight", day.Start)
	}
}

func TestResolveDayRange_InvalidDate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, in := range []string{"not-a-date", "2026-13-01", "2026-02-30", "15-03-2026"} {
		if _, err := ResolveDayRange(in, now, time.UTC); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ResolveDayRange(%q) error = %v, want ErrInvalidDate", in, err)
		}
	}
}

func TestDayRange_HalfOpen(t *testing.T) {
	day := DayRange{Start: date(2026, 3, 15), End: date(2026, 3, 16)}

	if !day.Contains(day.Start) {
		t.Error("Contains(Start) = false, want true")
	}
	if !day.Contains(time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)) {
		t.Error("Contains(end of day) = false, want true")
	}
	if day.Contains(day.End) {
		t.Error("Contains(End) = true, want false (half-open)")
	}
}

func TestDueOn_Daily(t *testing.T) {
	p := Plan{Frequency: FrequencyDaily, StartDate: date(2026, 3, 1)}

	if !DueOn(p, date(2026, 3, 1)) || !DueOn(p, date(2026, 7, 19)) {
		t.Error("daily plan should be due every day")
	}
}

func TestDueOn_SpecificDays(t *testing.T) {
	// Monday, Wednesday, Friday.
	p := Plan{
		Frequency:    FrequencySpecificDays,
		SpecificDays: []int{1, 3, 5},
		StartDate:    date(2026, 3, 1),
	}

	monday := date(2026, 3, 2)
	tuesday := date(2026, 3, 3)
	friday := date(2026, 3, 6)
	sunday := date(2026, 3, 8)

	if !DueOn(p, monday) {
		t.Error("expected due on Monday")
	}
	if DueOn(p, tuesday) {
		t.Error("expected not due on Tuesday")
	}
	if !DueOn(p, friday) {
		t.Error("expected due on Friday")
	}
	if DueOn(p, sunday) {
		t.Error("expected not due on Sunday")
	}
}

func TestDueOn_SpecificDays_SundayIsZero(t *testing.T) {
	p := Plan{
		Frequency:    FrequencySpecificDays,
		SpecificDays: []int{0},
		StartDate:    date(2026, 3, 1),
	}

	if !DueOn(p, date(2026, 3, 8)) {
		t.Error("weekday 0 should match Sunday")
	}
	if DueOn(p, date(2026, 3, 9)) {
		t.Error("weekday 0 should not match Monday")
	}
}

func TestDueOn_Interval(t *testing.T) {
	p := Plan{
		Frequency:    FrequencyInterval,
		IntervalDays: 3,
		StartDate:    date(2026, 3, 1),
	}

	cases := []struct {
		day  time.Time
		want bool
	}{
		{date(2026, 3, 1), true},
		{date(2026, 3, 2), false},
		{date(2026, 3, 3), false},
		{date(2026, 3, 4), true},
		{date(2026, 3, 7), true},
		{date(2026, 2, 26), false}, // before start
	}

	for _, tc := range cases {
		if got := DueOn(p, tc.day); got != tc.want {
			t.Errorf("DueOn(interval 3, %s) = %v, want %v", tc.day.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestDueOn_Weekly(t *testing.T) {
	p := Plan{Frequency: FrequencyWeekly, StartDate: date(2026, 3, 2)}

	if !DueOn(p, date(2026, 3, 2)) {
		t.Error("weekly plan due on its start date")
	}
	if !DueOn(p, date(2026, 3, 9)) {
		t.Error("weekly plan due 7 days after start")
	}
	if DueOn(p, date(2026, 3, 5)) {
		t.Error("weekly plan not due mid-week")
	}
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC)

	if got := daysBetween(a, b); got != 3 {
		t.Errorf("daysBetween = %d, want 3", got)
	}
}

func TestDaysBetween_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// US spring-forward 2026 happens on March 8; the local day is 23 hours
	// long, which must not shift the day count.
	a := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	b := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)

	if got := daysBetween(a, b); got != 2 {
		t.Errorf("daysBetween across DST = %d, want 2", got)
	}
}

func TestDueOn_IntervalAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	p := Plan{
		Frequency:    FrequencyInterval,
		IntervalDays: 2,
		StartDate:    time.Date(2026, 3, 6, 0, 0, 0, 0, loc),
	}

	if !DueOn(p, time.Date(2026, 3, 8, 0, 0, 0, 0, loc)) {
		t.Error("interval plan should stay aligned across the DST transition")
	}
	if !DueOn(p, time.Date(2026, 3, 10, 0, 0, 0, 0, loc)) {
		t.Error("interval plan should stay aligned after the DST transition")
	}
}
