package flowstats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DaysPerYear is the length of the day-of-year axis
const DaysPerYear = 365

// DefaultPercentiles is the percentile set used when none is configured
var DefaultPercentiles = []float64{5, 25, 75, 95}

// DaySample is one year's value on one day of the axis
type DaySample struct {
	Year      int
	DayOfYear int
	Value     float64
	Missing   bool
}

// SamplesFromRows converts aligned rows into aggregator samples.
func SamplesFromRows(rows []AlignedRow) []DaySample {
	out := make([]DaySample, len(rows))
	for i, r := range rows {
		out[i] = DaySample{Year: r.Year, DayOfYear: r.DayOfYear, Value: r.Value, Missing: r.Missing}
	}
	return out
}

// SamplesFromCumulative converts running totals into aggregator samples. Points
// that are missing or follow a gap in their year are treated as missing.
func SamplesFromCumulative(points []CumulativePoint) []DaySample {
	out := make([]DaySample, len(points))
	for i, p := range points {
		out[i] = DaySample{Year: p.Year, DayOfYear: p.DayOfYear, Value: p.Value, Missing: p.Missing || p.Incomplete}
	}
	return out
}

func validatePercentiles(percentiles []float64) error {
	for _, p := range percentiles {
		if math.IsNaN(p) || p < 0 || p > 100 {
			return fmt.Errorf("%w: percentile %g outside 0-100", ErrInvalidParameter, p)
		}
	}
	return nil
}

// Summarize groups samples by day of year and computes distribution statistics
// over the non-missing values of each day. The result always has DaysPerYear rows
// ordered by day; days without values are marked NoData. start labels each row
// with its month and day on a non-leap year beginning in that month.
func Summarize(samples []DaySample, percentiles []float64, start time.Month) ([]DailyStatSummary, error) {
	if percentiles == nil {
		percentiles = DefaultPercentiles
	}
	if err := validatePercentiles(percentiles); err != nil {
		return nil, err
	}
	if start < time.January || start > time.December {
		return nil, fmt.Errorf("%w: start month %d outside 1-12", ErrInvalidParameter, start)
	}

	byDay := make([][]float64, DaysPerYear+1)
	for _, s := range samples {
		if s.Missing || s.DayOfYear < 1 || s.DayOfYear > DaysPerYear {
			continue
		}
		byDay[s.DayOfYear] = append(byDay[s.DayOfYear], s.Value)
	}

	out := make([]DailyStatSummary, 0, DaysPerYear)
	for doy := 1; doy <= DaysPerYear; doy++ {
		month, day := referenceDate(doy, start)
		out = append(out, summarizeDay(doy, month, day, byDay[doy], percentiles))
	}
	return out, nil
}

func summarizeDay(doy int, month time.Month, day int, values []float64, percentiles []float64) DailyStatSummary {
	s := DailyStatSummary{
		DayOfYear:   doy,
		Month:       month,
		Day:         day,
		Count:       len(values),
		Percentiles: make([]PercentileValue, len(percentiles)),
	}

	if len(values) == 0 {
		nan := math.NaN()
		s.NoData = true
		s.Mean, s.Median, s.Min, s.Max = nan, nan, nan, nan
		for i, p := range percentiles {
			s.Percentiles[i] = PercentileValue{P: p, Value: nan}
		}
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Median = Quantile(sorted, 0.5)
	for i, p := range percentiles {
		s.Percentiles[i] = PercentileValue{P: p, Value: Quantile(sorted, p/100)}
	}
	return s
}

// Quantile returns the q-th sample quantile of sorted (ascending, non-empty) using
// linear interpolation between order statistics (Hyndman & Fan type 7).
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * q
	lo := int(math.Floor(h))
	if lo < 0 {
		return sorted[0]
	}
	if lo >= n-1 {
		return sorted[n-1]
	}

	a, b := sorted[lo], sorted[lo+1]
	v := a + (h-float64(lo))*(b-a)
	// rounding may step one ulp past the bracketing order statistics
	return math.Min(math.Max(v, a), b)
}
