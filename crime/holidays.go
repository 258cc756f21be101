package crime

import "time"

// Nigerian public-holiday calendar. Fixed-date holidays and the
// Easter-derived ones are computed; the Islamic feasts follow the lunar
// calendar and are kept in a per-year table of observed dates.

type monthDay struct {
	month time.Month
	day   int
}

// Fixed-date public holidays: New Year's Day, Workers' Day, Democracy Day,
// Independence Day, Christmas Day, Boxing Day.
var fixedHolidays = []monthDay{
	{time.January, 1},
	{time.May, 1},
	{time.June, 12},
	{time.October, 1},
	{time.December, 25},
	{time.December, 26},
}

// Observed dates for Eid al-Fitr, Eid al-Adha and Eid al-Maulud. Years
// outside this table fall back to the computed holidays only.
var lunarHolidays = map[int][]monthDay{
	2022: {{time.May, 2}, {time.May, 3}, {time.July, 9}, {time.July, 10}, {time.October, 8}},
	2023: {{time.April, 21}, {time.April, 22}, {time.June, 28}, {time.June, 29}, {time.September, 27}},
	2024: {{time.April, 10}, {time.April, 11}, {time.June, 16}, {time.June, 17}, {time.September, 15}},
	2025: {{time.March, 30}, {time.March, 31}, {time.June, 6}, {time.June, 7}, {time.September, 5}},
	2026: {{time.March, 20}, {time.March, 21}, {time.May, 27}, {time.May, 28}, {time.August, 25}},
	2027: {{time.March, 9}, {time.March, 10}, {time.May, 16}, {time.May, 17}, {time.August, 14}},
}

// IsHoliday reports whether the given date is a Nigerian public holiday.
// Only the calendar date matters; the time of day and zone are ignored.
func IsHoliday(date time.Time) bool {
	year, month, day := date.Date()

	for _, h := range fixedHolidays {
		if month == h.month && day == h.day {
			return true
		}
	}

	easter := easterSunday(year)
	goodFriday := easter.AddDate(0, 0, -2)
	easterMonday := easter.AddDate(0, 0, 1)
	if sameDate(month, day, goodFriday) || sameDate(month, day, easterMonday) {
		return true
	}

	for _, h := range lunarHolidays[year] {
		if month == h.month && day == h.day {
			return true
		}
	}

	return false
}

func sameDate(month time.Month, day int, t time.Time) bool {
	return t.Month() == month && t.Day() == day
}

// easterSunday computes Easter Sunday for a year in the Gregorian calendar
// using the anonymous Gregorian (Meeus/Jones/Butcher) algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
