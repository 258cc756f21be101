package crime

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 30, 0, 0, time.UTC)
}

func TestIsHolidayFixedDates(t *testing.T) {
	t.Parallel()

	holidays := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.May, 1),
		date(2024, time.June, 12),
		date(2024, time.October, 1),
		date(2024, time.December, 25),
		date(2024, time.December, 26),
	}
	for _, d := range holidays {
		if !IsHoliday(d) {
			t.Errorf("expected %s to be a holiday", d.Format("2006-01-02"))
		}
	}

	if IsHoliday(date(2024, time.February, 13)) {
		t.Error("2024-02-13 should not be a holiday")
	}
}

func TestIsHolidayEasterDerived(t *testing.T) {
	t.Parallel()

	// Easter Sunday 2024 fell on March 31.
	if !IsHoliday(date(2024, time.March, 29)) {
		t.Error("Good Friday 2024 should be a holiday")
	}
	if !IsHoliday(date(2024, time.April, 1)) {
		t.Error("Easter Monday 2024 should be a holiday")
	}
	if !IsHoliday(date(2025, time.April, 18)) {
		t.Error("Good Friday 2025 should be a holiday")
	}
	if IsHoliday(date(2024, time.March, 30)) {
		t.Error("Holy Saturday is not a public holiday")
	}
}

func TestIsHolidayLunarTable(t *testing.T) {
	t.Parallel()

	if !IsHoliday(date(2024, time.April, 10)) {
		t.Error("Eid al-Fitr 2024 should be a holiday")
	}
	if !IsHoliday(date(2025, time.June, 6)) {
		t.Error("Eid al-Adha 2025 should be a holiday")
	}

	// Years outside the table still get fixed and Easter-derived holidays.
	if !IsHoliday(date(2031, time.October, 1)) {
		t.Error("Independence Day should hold for any year")
	}
}

func TestEasterSunday(t *testing.T) {
	t.Parallel()

	cases := map[int]time.Time{
		2023: time.Date(2023, time.April, 9, 0, 0, 0, 0, time.UTC),
		2024: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		2025: time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC),
		2026: time.Date(2026, time.April, 5, 0, 0, 0, 0, time.UTC),
	}
	for year, want := range cases {
		if got := easterSunday(year); !got.Equal(want) {
			t.Errorf("easterSunday(%d) = %s, want %s", year, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}
