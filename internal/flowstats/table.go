package flowstats

import (
	"fmt"
	"math"
	"strconv"
)

// Table is a neutral column/row view of a result, handed to renderers and
// encoders. Cells hold int, float64, string, bool or nil for missing values.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

func cell(v float64, missing bool) any {
	if missing || math.IsNaN(v) {
		return nil
	}
	return v
}

// PercentileColumn returns the column name of percentile p, e.g. "P5" or "P2.5"
func PercentileColumn(p float64) string {
	return "P" + strconv.FormatFloat(p, 'f', -1, 64)
}

// SummaryTable renders summaries one row per day of year.
func SummaryTable(name string, summaries []DailyStatSummary) Table {
	t := Table{
		Name:    name,
		Columns: []string{"DayOfYear", "Date", "Count", "Mean", "Median", "Min", "Max"},
	}
	if len(summaries) > 0 {
		for _, pv := range summaries[0].Percentiles {
			t.Columns = append(t.Columns, PercentileColumn(pv.P))
		}
	}

	for _, s := range summaries {
		row := []any{
			s.DayOfYear,
			fmt.Sprintf("%s-%02d", s.Month.String()[:3], s.Day),
			s.Count,
			cell(s.Mean, s.NoData),
			cell(s.Median, s.NoData),
			cell(s.Min, s.NoData),
			cell(s.Max, s.NoData),
		}
		for _, pv := range s.Percentiles {
			row = append(row, cell(pv.Value, s.NoData))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// YearsTable renders per-year series in long format.
func YearsTable(name string, years []YearSeries) Table {
	t := Table{
		Name:    name,
		Columns: []string{"Year", "DayOfYear", "Date", "Value", "Cumulative", "Incomplete"},
	}
	for _, y := range years {
		for _, p := range y.Points {
			t.Rows = append(t.Rows, []any{
				y.Year,
				p.DayOfYear,
				p.Date.Format(dateLayout),
				cell(p.Value, p.Missing),
				cell(p.Cumulative, p.CumulativeMissing),
				p.Incomplete,
			})
		}
	}
	return t
}
