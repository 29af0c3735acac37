package flowstats

import "fmt"

// leapDay is the day-of-year slot dropped so every year spans 365 days.
const leapDay = 366

// AnalysisWindow restricts the years that contribute to statistics. Zero
// StartYear or EndYear means unbounded on that side.
type AnalysisWindow struct {
	StartYear    int
	EndYear      int
	ExcludeYears []int
}

func (w AnalysisWindow) excluded(year int) bool {
	for _, y := range w.ExcludeYears {
		if y == year {
			return true
		}
	}
	return false
}

// ResolveWindow fills unspecified bounds with the earliest and latest year in rows.
func ResolveWindow(rows []AlignedRow, w AnalysisWindow) (AnalysisWindow, error) {
	years := sortedYears(rows)
	if len(years) > 0 {
		if w.StartYear == 0 {
			w.StartYear = years[0]
		}
		if w.EndYear == 0 {
			w.EndYear = years[len(years)-1]
		}
	}
	if w.StartYear > w.EndYear {
		return w, fmt.Errorf("%w: start year %d is after end year %d", ErrInvalidRange, w.StartYear, w.EndYear)
	}
	return w, nil
}

// FilterYears keeps rows whose year is inside the resolved window and not
// excluded, and drops the leap-day slot.
func FilterYears(rows []AlignedRow, w AnalysisWindow) []AlignedRow {
	out := make([]AlignedRow, 0, len(rows))
	for _, r := range rows {
		if r.DayOfYear == leapDay {
			continue
		}
		if r.Year < w.StartYear || r.Year > w.EndYear || w.excluded(r.Year) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CompleteYears drops every year that has at least one missing day.
func CompleteYears(rows []AlignedRow) []AlignedRow {
	incomplete := make(map[int]bool)
	for _, r := range rows {
		if r.Missing {
			incomplete[r.Year] = true
		}
	}

	out := make([]AlignedRow, 0, len(rows))
	for _, r := range rows {
		if !incomplete[r.Year] {
			out = append(out, r)
		}
	}
	return out
}
