package medicine

import (
	"errors"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// ResolveDayRange turns an optional "YYYY-MM-DD" string into a half-open
// [startOfDay, nextMidnight) interval in loc. An empty string means the day
// containing now. A string that does not parse to a valid calendar date
// returns ErrInvalidDate, which callers surface as a client error.
func ResolveDayRange(date string, now time.Time, loc *time.Location) (DayRange, error) {
	var day time.Time

	if date == "" {
		day = startOfDay(now.In(loc))
	} else {
		parsed, err := time.ParseInLocation(dateLayout, date, loc)
		if err != nil {
			return DayRange{}, ErrInvalidDate
		}
		day = parsed
	}

	return DayRange{Start: day, End: day.AddDate(0, 0, 1)}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b. Both arguments are
// truncated to their calendar date first so time-of-day noise (and DST
// offsets) cannot perturb the count.
func daysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// DueOn reports whether a plan's recurrence pattern schedules a dose on the
// given day (midnight-truncated). It assumes the plan's date interval already
// overlaps the day; start/end overlap is checked by the plan selector.
//
// Weekly plans are treated as every-7-days anchored to the start date.
// Callers wanting weekly-on-given-weekdays express that via specific_days.
func DueOn(p Plan, day time.Time) bool {
	switch p.Frequency {
	case FrequencyDaily:
		return true

	case FrequencySpecificDays:
		wd := int(day.Weekday())
		for _, d := range p.SpecificDays {
			if d == wd {
				return true
			}
		}
		return false

	case FrequencyInterval:
		if p.IntervalDays < 1 {
			return false
		}
		diff := daysBetween(p.StartDate, day)
		return diff >= 0 && diff%p.IntervalDays == 0

	case FrequencyWeekly:
		diff := daysBetween(p.StartDate, day)
		return diff >= 0 && diff%7 == 0

	default:
		return false
	}
}
