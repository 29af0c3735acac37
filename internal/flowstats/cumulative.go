package flowstats

import (
	"fmt"
	"sort"
)

// unitFactor returns the multiplier converting a daily mean discharge (m³/s)
// into the day's contribution in the requested units.
func unitFactor(units Units, basinArea *float64) (float64, error) {
	switch units {
	case UnitsVolume:
		return secondsPerDay, nil
	case UnitsYield:
		if basinArea == nil {
			return 0, fmt.Errorf("%w: yield units require a basin area", ErrMissingParameter)
		}
		if *basinArea <= 0 {
			return 0, fmt.Errorf("%w: basin area must be positive, got %g", ErrInvalidParameter, *basinArea)
		}
		// m³ over km² × 10⁶ m²/km², then × 10³ mm/m
		return secondsPerDay / (*basinArea * 1000), nil
	default:
		return 0, fmt.Errorf("%w: unknown units %v", ErrInvalidParameter, units)
	}
}

// Cumulate computes the running total of each year in rows, walking days in
// day-of-year order. A missing day contributes nothing; it and every later day of
// the same year are marked incomplete.
func Cumulate(rows []AlignedRow, units Units, basinArea *float64) ([]CumulativePoint, []Diagnostic, error) {
	factor, err := unitFactor(units, basinArea)
	if err != nil {
		return nil, nil, err
	}

	byYear := make(map[int][]AlignedRow)
	for _, r := range rows {
		byYear[r.Year] = append(byYear[r.Year], r)
	}

	var (
		points = make([]CumulativePoint, 0, len(rows))
		diags  []Diagnostic
	)
	for _, year := range sortedYears(rows) {
		days := byYear[year]
		sort.Slice(days, func(i, j int) bool { return days[i].DayOfYear < days[j].DayOfYear })

		var (
			total      float64
			incomplete bool
			missing    int
		)
		for _, r := range days {
			if r.Missing {
				incomplete = true
				missing++
			} else {
				total += r.Value * factor
			}
			points = append(points, CumulativePoint{
				Year:       year,
				DayOfYear:  r.DayOfYear,
				Value:      total,
				Missing:    r.Missing,
				Incomplete: incomplete,
			})
		}

		if missing > 0 {
			diags = append(diags, Diagnostic{
				Kind:    DiagnosticIncompleteYear,
				Year:    year,
				Count:   missing,
				Message: fmt.Sprintf("year %d has %d missing days; cumulative totals from the first gap onward are understated", year, missing),
			})
		}
	}
	return points, diags, nil
}
