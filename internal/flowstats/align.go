package flowstats

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RawRecord is a textual date/value pair, as read from a delimited file
type RawRecord struct {
	Date  string
	Value string
}

const dateLayout = "2006-01-02"

// ParseObservations converts text records into observations. Empty, "NA" and
// "NaN" values are treated as missing.
func ParseObservations(records []RawRecord) ([]Observation, error) {
	obs := make([]Observation, 0, len(records))
	for i, r := range records {
		date, err := time.Parse(dateLayout, strings.TrimSpace(r.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: unrecognised date %q", ErrInvalidInput, i, r.Date)
		}

		v := strings.TrimSpace(r.Value)
		switch strings.ToUpper(v) {
		case "", "NA", "NAN":
			obs = append(obs, Observation{Date: date, Missing: true})
			continue
		}

		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: non-numeric value %q", ErrInvalidInput, i, r.Value)
		}
		obs = append(obs, Observation{Date: date, Value: value})
	}
	return obs, nil
}

// Align expands obs onto a dense daily grid covering whole years of the given type
// and labels every row. Dates absent from obs are inserted as missing. The input
// slice is not modified.
func Align(obs []Observation, yearType YearType, waterYearStart time.Month) ([]AlignedRow, []Diagnostic, error) {
	if len(obs) == 0 {
		return nil, nil, fmt.Errorf("%w: series is empty", ErrInvalidInput)
	}
	if waterYearStart < time.January || waterYearStart > time.December {
		return nil, nil, fmt.Errorf("%w: water year start month %d outside 1-12", ErrInvalidParameter, waterYearStart)
	}

	start := time.January
	if yearType == YearTypeWater {
		start = waterYearStart
	}

	byDay := make(map[int64]Observation, len(obs))
	var (
		first, last   time.Time
		negatives     int
		firstNegative time.Time
	)
	for i, o := range obs {
		if o.Date.IsZero() {
			return nil, nil, fmt.Errorf("%w: observation %d has no date", ErrInvalidInput, i)
		}
		if !o.Missing && (math.IsNaN(o.Value) || math.IsInf(o.Value, 0)) {
			return nil, nil, fmt.Errorf("%w: observation %d on %s is not a finite number", ErrInvalidInput, i, o.Date.Format(dateLayout))
		}

		date := civil(o.Date)
		key := dayNumber(date)
		if _, dup := byDay[key]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate observation for %s", ErrInvalidInput, date.Format(dateLayout))
		}
		byDay[key] = Observation{Date: date, Value: o.Value, Missing: o.Missing}

		if first.IsZero() || date.Before(first) {
			first = date
		}
		if last.IsZero() || date.After(last) {
			last = date
		}
		if !o.Missing && o.Value < 0 {
			if negatives == 0 || date.Before(firstNegative) {
				firstNegative = date
			}
			negatives++
		}
	}

	gridStart := yearStart(yearFor(first, start), start)
	gridEnd := yearEnd(yearFor(last, start), start)

	n := int(dayNumber(gridEnd)-dayNumber(gridStart)) + 1
	rows := make([]AlignedRow, 0, n)
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		o, ok := byDay[dayNumber(d)]
		if !ok {
			o = Observation{Date: d, Missing: true}
		}

		ctx := NewYearContext(d, waterYearStart)
		row := AlignedRow{Observation: o, YearContext: ctx}
		if yearType == YearTypeWater {
			row.Year, row.DayOfYear = ctx.WaterYear, ctx.WaterDayOfYear
		} else {
			row.Year, row.DayOfYear = ctx.CalendarYear, ctx.CalendarDayOfYear
		}
		rows = append(rows, row)
	}

	var diags []Diagnostic
	if negatives > 0 {
		diags = append(diags, Diagnostic{
			Kind:    DiagnosticNegativeValue,
			Date:    firstNegative,
			Count:   negatives,
			Message: fmt.Sprintf("%d negative values in series, first on %s", negatives, firstNegative.Format(dateLayout)),
		})
	}
	return rows, diags, nil
}

// Rolling replaces each value with the trailing mean of the last days values on
// the grid. A row whose window is short or contains a missing value becomes
// missing. days <= 1 returns an unmodified copy.
func Rolling(rows []AlignedRow, days int) []AlignedRow {
	out := make([]AlignedRow, len(rows))
	copy(out, rows)
	if days <= 1 {
		return out
	}

	var sum float64
	missingInWindow := 0
	for i, r := range rows {
		if r.Missing {
			missingInWindow++
		} else {
			sum += r.Value
		}
		if i >= days {
			old := rows[i-days]
			if old.Missing {
				missingInWindow--
			} else {
				sum -= old.Value
			}
		}

		if i < days-1 || missingInWindow > 0 {
			out[i].Value = 0
			out[i].Missing = true
			continue
		}
		out[i].Value = sum / float64(days)
		out[i].Missing = false
	}
	return out
}

// sortedYears returns the distinct year labels of rows in ascending order.
func sortedYears(rows []AlignedRow) []int {
	seen := make(map[int]struct{})
	for _, r := range rows {
		seen[r.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
