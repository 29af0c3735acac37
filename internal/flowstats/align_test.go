package flowstats

import (
	"errors"
	"math"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// constantSeries returns one observation per day from first to last inclusive.
func constantSeries(first, last time.Time, value float64) []Observation {
	var obs []Observation
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		obs = append(obs, Observation{Date: d, Value: value})
	}
	return obs
}

func TestNewYearContext(t *testing.T) {
	tests := []struct {
		name  string
		date  time.Time
		start time.Month
		want  YearContext
	}{
		{
			name:  "october start, first day of water year",
			date:  date(1900, time.October, 1),
			start: time.October,
			want:  YearContext{CalendarYear: 1900, CalendarDayOfYear: 274, WaterYear: 1901, WaterDayOfYear: 1},
		},
		{
			name:  "october start, new year's day",
			date:  date(1901, time.January, 1),
			start: time.October,
			want:  YearContext{CalendarYear: 1901, CalendarDayOfYear: 1, WaterYear: 1901, WaterDayOfYear: 93},
		},
		{
			name:  "october start, last day of water year",
			date:  date(1901, time.September, 30),
			start: time.October,
			want:  YearContext{CalendarYear: 1901, CalendarDayOfYear: 273, WaterYear: 1901, WaterDayOfYear: 365},
		},
		{
			name:  "october start, leap water year ends on day 366",
			date:  date(2000, time.September, 30),
			start: time.October,
			want:  YearContext{CalendarYear: 2000, CalendarDayOfYear: 274, WaterYear: 2000, WaterDayOfYear: 366},
		},
		{
			name:  "march start includes leap day of the following year",
			date:  date(2004, time.February, 29),
			start: time.March,
			want:  YearContext{CalendarYear: 2004, CalendarDayOfYear: 60, WaterYear: 2004, WaterDayOfYear: 366},
		},
		{
			name:  "leap year calendar day",
			date:  date(2000, time.December, 31),
			start: time.January,
			want:  YearContext{CalendarYear: 2000, CalendarDayOfYear: 366, WaterYear: 2000, WaterDayOfYear: 366},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewYearContext(tt.date, tt.start)
			if got != tt.want {
				t.Errorf("NewYearContext(%s, %s) = %+v, expected %+v", tt.date.Format("2006-01-02"), tt.start, got, tt.want)
			}
		})
	}
}

func TestWaterYearStartingJanuaryMatchesCalendar(t *testing.T) {
	for d := date(1999, time.January, 1); d.Before(date(2002, time.January, 1)); d = d.AddDate(0, 0, 1) {
		ctx := NewYearContext(d, time.January)
		if ctx.WaterDayOfYear != ctx.CalendarDayOfYear || ctx.WaterYear != ctx.CalendarYear {
			t.Fatalf("%s: water (%d, %d) differs from calendar (%d, %d)",
				d.Format("2006-01-02"), ctx.WaterYear, ctx.WaterDayOfYear, ctx.CalendarYear, ctx.CalendarDayOfYear)
		}
	}
}

func TestWaterDayOfYearIsContiguous(t *testing.T) {
	for start := time.January; start <= time.December; start++ {
		prev := NewYearContext(date(1995, time.December, 31), start)
		for d := date(1996, time.January, 1); d.Before(date(2001, time.January, 1)); d = d.AddDate(0, 0, 1) {
			ctx := NewYearContext(d, start)
			if ctx.WaterYear == prev.WaterYear {
				if ctx.WaterDayOfYear != prev.WaterDayOfYear+1 {
					t.Fatalf("start %s, %s: day %d follows %d", start, d.Format("2006-01-02"), ctx.WaterDayOfYear, prev.WaterDayOfYear)
				}
			} else {
				if ctx.WaterDayOfYear != 1 || ctx.WaterYear != prev.WaterYear+1 {
					t.Fatalf("start %s, %s: year rolled to (%d, %d) from (%d, %d)",
						start, d.Format("2006-01-02"), ctx.WaterYear, ctx.WaterDayOfYear, prev.WaterYear, prev.WaterDayOfYear)
				}
				if d.Month() != start || d.Day() != 1 {
					t.Fatalf("start %s: water year began on %s", start, d.Format("2006-01-02"))
				}
			}
			prev = ctx
		}
	}
}

func TestAlignFillsGapsWithoutDuplicates(t *testing.T) {
	obs := []Observation{
		{Date: date(2001, time.March, 5), Value: 3},
		{Date: date(2000, time.June, 1), Value: 1},
		{Date: date(2001, time.March, 1), Value: 2},
	}

	tests := []struct {
		name      string
		yearType  YearType
		start     time.Month
		wantFirst time.Time
		wantLast  time.Time
	}{
		{"calendar", YearTypeCalendar, time.October, date(2000, time.January, 1), date(2001, time.December, 31)},
		{"water october", YearTypeWater, time.October, date(1999, time.October, 1), date(2001, time.September, 30)},
		{"water june", YearTypeWater, time.June, date(2000, time.June, 1), date(2001, time.May, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, _, err := Align(obs, tt.yearType, tt.start)
			if err != nil {
				t.Fatalf("Align returned error: %v", err)
			}

			if !rows[0].Date.Equal(tt.wantFirst) || !rows[len(rows)-1].Date.Equal(tt.wantLast) {
				t.Fatalf("span = %s..%s, expected %s..%s",
					rows[0].Date.Format("2006-01-02"), rows[len(rows)-1].Date.Format("2006-01-02"),
					tt.wantFirst.Format("2006-01-02"), tt.wantLast.Format("2006-01-02"))
			}

			wantDays := int(tt.wantLast.Sub(tt.wantFirst).Hours()/24) + 1
			if len(rows) != wantDays {
				t.Fatalf("got %d rows, expected %d", len(rows), wantDays)
			}
			for i := 1; i < len(rows); i++ {
				if !rows[i].Date.Equal(rows[i-1].Date.AddDate(0, 0, 1)) {
					t.Fatalf("row %d date %s does not follow %s", i, rows[i].Date.Format("2006-01-02"), rows[i-1].Date.Format("2006-01-02"))
				}
			}

			present := 0
			for _, r := range rows {
				if !r.Missing {
					present++
				}
			}
			if present != len(obs) {
				t.Errorf("got %d present rows, expected %d", present, len(obs))
			}
		})
	}
}

func TestAlignLabelsConfiguredYearType(t *testing.T) {
	obs := []Observation{{Date: date(1900, time.October, 1), Value: 4}}

	rows, _, err := Align(obs, YearTypeWater, time.October)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if rows[0].Year != 1901 || rows[0].DayOfYear != 1 || rows[0].Missing || rows[0].Value != 4 {
		t.Errorf("first row = %+v, expected water year 1901 day 1 value 4", rows[0])
	}
}

func TestAlignDoesNotMutateInput(t *testing.T) {
	obs := []Observation{
		{Date: time.Date(2001, time.January, 2, 15, 30, 0, 0, time.UTC), Value: 2},
		{Date: date(2001, time.January, 1), Value: 1},
	}
	before := make([]Observation, len(obs))
	copy(before, obs)

	if _, _, err := Align(obs, YearTypeCalendar, time.January); err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	for i := range obs {
		if obs[i] != before[i] {
			t.Errorf("input %d changed from %+v to %+v", i, before[i], obs[i])
		}
	}
}

func TestAlignErrors(t *testing.T) {
	tests := []struct {
		name string
		obs  []Observation
		want error
	}{
		{"empty", nil, ErrInvalidInput},
		{"nan value", []Observation{{Date: date(2000, 1, 1), Value: math.NaN()}}, ErrInvalidInput},
		{"infinite value", []Observation{{Date: date(2000, 1, 1), Value: math.Inf(1)}}, ErrInvalidInput},
		{"zero date", []Observation{{Value: 1}}, ErrInvalidInput},
		{"duplicate date", []Observation{{Date: date(2000, 1, 1), Value: 1}, {Date: date(2000, 1, 1), Value: 2}}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Align(tt.obs, YearTypeCalendar, time.January)
			if !errors.Is(err, tt.want) {
				t.Errorf("Align error = %v, expected %v", err, tt.want)
			}
		})
	}

	if _, _, err := Align([]Observation{{Date: date(2000, 1, 1)}}, YearTypeWater, 13); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Align with month 13 error = %v, expected %v", err, ErrInvalidParameter)
	}
}

func TestAlignReportsNegativeValues(t *testing.T) {
	obs := []Observation{
		{Date: date(2000, 5, 2), Value: -1},
		{Date: date(2000, 5, 1), Value: -0.5},
		{Date: date(2000, 5, 3), Value: 2},
	}
	rows, diags, err := Align(obs, YearTypeCalendar, time.January)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}
	if len(rows) != 366 {
		t.Errorf("got %d rows, expected 366", len(rows))
	}
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, expected 1", len(diags))
	}
	if diags[0].Kind != DiagnosticNegativeValue || diags[0].Count != 2 || !diags[0].Date.Equal(date(2000, 5, 1)) {
		t.Errorf("diagnostic = %+v", diags[0])
	}
}

func TestParseObservations(t *testing.T) {
	obs, err := ParseObservations([]RawRecord{
		{Date: "2000-01-01", Value: "1.5"},
		{Date: " 2000-01-02 ", Value: ""},
		{Date: "2000-01-03", Value: "NA"},
		{Date: "2000-01-04", Value: " 7 "},
	})
	if err != nil {
		t.Fatalf("ParseObservations returned error: %v", err)
	}
	if len(obs) != 4 {
		t.Fatalf("got %d observations, expected 4", len(obs))
	}
	if obs[0].Value != 1.5 || obs[0].Missing {
		t.Errorf("obs[0] = %+v", obs[0])
	}
	if !obs[1].Missing || !obs[2].Missing {
		t.Errorf("expected obs[1] and obs[2] missing, got %+v %+v", obs[1], obs[2])
	}
	if obs[3].Value != 7 {
		t.Errorf("obs[3] = %+v", obs[3])
	}

	for _, bad := range []RawRecord{
		{Date: "01/02/2000", Value: "1"},
		{Date: "2000-01-01", Value: "high"},
	} {
		if _, err := ParseObservations([]RawRecord{bad}); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseObservations(%+v) error = %v, expected %v", bad, err, ErrInvalidInput)
		}
	}
}

func TestRolling(t *testing.T) {
	obs := []Observation{
		{Date: date(2001, 1, 1), Value: 1},
		{Date: date(2001, 1, 2), Value: 2},
		{Date: date(2001, 1, 3), Value: 3},
		{Date: date(2001, 1, 4), Value: 6},
		{Date: date(2001, 1, 6), Value: 9},
		{Date: date(2001, 1, 7), Value: 9},
		{Date: date(2001, 1, 8), Value: 9},
	}
	rows, _, err := Align(obs, YearTypeCalendar, time.January)
	if err != nil {
		t.Fatalf("Align returned error: %v", err)
	}

	rolled := Rolling(rows, 3)
	tests := []struct {
		idx     int
		missing bool
		value   float64
	}{
		{0, true, 0},
		{1, true, 0},
		{2, false, 2},
		{3, false, 11.0 / 3},
		{4, true, 0}, // Jan 5 missing
		{6, true, 0}, // window still contains Jan 5
		{7, false, 9},
	}
	for _, tt := range tests {
		r := rolled[tt.idx]
		if r.Missing != tt.missing || (!tt.missing && math.Abs(r.Value-tt.value) > 1e-9) {
			t.Errorf("rolled[%d] = (%v, missing=%v), expected (%v, missing=%v)", tt.idx, r.Value, r.Missing, tt.value, tt.missing)
		}
	}

	if rows[3].Value != 6 {
		t.Errorf("Rolling modified its input: rows[3] = %v", rows[3].Value)
	}
}
