package flowstats

import "time"

// daysBeforeMonth[m] is the number of days preceding month m in a non-leap year.
// It doubles as the offset of each possible water-year start month.
var daysBeforeMonth = [13]int{0, 0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

const secondsPerDay = 86400

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInYear(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func dayOfYear(year int, month time.Month, day int) int {
	n := daysBeforeMonth[month] + day
	if month > time.February && isLeap(year) {
		n++
	}
	return n
}

// civil truncates t to a UTC-midnight calendar date, keeping t's own date fields.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayNumber is the count of days since the Unix epoch for a civil date.
func dayNumber(t time.Time) int64 {
	return civil(t).Unix() / secondsPerDay
}

// yearFor returns the year label of date for years starting in month start.
func yearFor(date time.Time, start time.Month) int {
	y, m, _ := date.Date()
	if start > time.January && m >= start {
		return y + 1
	}
	return y
}

// yearStart returns the first day of the year labelled year.
func yearStart(year int, start time.Month) time.Time {
	if start > time.January {
		return time.Date(year-1, start, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// yearEnd returns the last day of the year labelled year.
func yearEnd(year int, start time.Month) time.Time {
	return yearStart(year+1, start).AddDate(0, 0, -1)
}

// dayOfYearFor returns the 1-based offset of date from the start of its year.
func dayOfYearFor(date time.Time, start time.Month) int {
	y, m, d := date.Date()
	cal := dayOfYear(y, m, d)
	if start == time.January {
		return cal
	}

	firstYear := yearFor(date, start) - 1
	offset := dayOfYear(firstYear, start, 1) - 1
	if y == firstYear {
		return cal - offset
	}
	return daysInYear(firstYear) - offset + cal
}

// NewYearContext labels date with calendar and water-year positions.
func NewYearContext(date time.Time, waterYearStart time.Month) YearContext {
	date = civil(date)
	if waterYearStart < time.January || waterYearStart > time.December {
		waterYearStart = time.January
	}
	y, m, d := date.Date()
	return YearContext{
		CalendarYear:      y,
		CalendarDayOfYear: dayOfYear(y, m, d),
		WaterYear:         yearFor(date, waterYearStart),
		WaterDayOfYear:    dayOfYearFor(date, waterYearStart),
	}
}

// referenceDate returns the month and day of dayOfYear on a non-leap year
// beginning in start. 2001 and 2002 are both non-leap, so the reference year never
// contains February 29 regardless of start month.
func referenceDate(doy int, start time.Month) (time.Month, int) {
	d := time.Date(2001, start, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	return d.Month(), d.Day()
}
