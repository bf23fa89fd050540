package simulation

import "time"

// DateLayout is the ISO calendar date format of occurred_at.
const DateLayout = "2006-01-02"

// Days returns every date of year in order, at UTC midnight.
func Days(year int) []time.Time {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, 0, 366)
	for d.Year() == year {
		out = append(out, d)
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// WeekdayIndex maps a date to Monday=0 ... Sunday=6.
func WeekdayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// CompactDays is the number of distinct visit dates in compact mode.
const CompactDays = 5

// compactDates are the fixed visit dates of compact mode.
func compactDates(year int) []time.Time {
	return []time.Time{
		time.Date(year, time.January, 15, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.March, 10, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.May, 20, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.September, 5, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.November, 25, 0, 0, 0, 0, time.UTC),
	}
}
