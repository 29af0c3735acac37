// Package flowstats computes day-of-year statistics and running totals over
// multi-year daily streamflow series.
package flowstats

import (
	"fmt"
	"strings"
	"time"
)

// YearType selects how dates are grouped into years
type YearType int

const (
	// YearTypeCalendar groups January 1 through December 31
	YearTypeCalendar YearType = iota

	// YearTypeWater groups twelve months beginning on the first day of a configured
	// start month. A water year is named by the calendar year in which it ends.
	YearTypeWater
)

func (y YearType) String() string {
	switch y {
	case YearTypeCalendar:
		return "calendar"
	case YearTypeWater:
		return "water"
	default:
		return fmt.Sprintf("YearType(%d)", int(y))
	}
}

// ParseYearType parses "calendar" or "water"
func ParseYearType(s string) (YearType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "calendar":
		return YearTypeCalendar, nil
	case "water":
		return YearTypeWater, nil
	default:
		return 0, fmt.Errorf("%w: unknown year type %q", ErrInvalidParameter, s)
	}
}

// Units selects the unit of cumulative totals
type Units int

const (
	// UnitsVolume accumulates daily discharge into cubic metres
	UnitsVolume Units = iota

	// UnitsYield accumulates daily discharge divided by basin area, in millimetres
	UnitsYield
)

func (u Units) String() string {
	switch u {
	case UnitsVolume:
		return "volume"
	case UnitsYield:
		return "yield"
	default:
		return fmt.Sprintf("Units(%d)", int(u))
	}
}

// Label returns the unit symbol used in output tables
func (u Units) Label() string {
	if u == UnitsYield {
		return "mm"
	}
	return "m3"
}

// ParseUnits parses "volume" or "yield"
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "volume":
		return UnitsVolume, nil
	case "yield":
		return UnitsYield, nil
	default:
		return 0, fmt.Errorf("%w: unknown units %q", ErrInvalidParameter, s)
	}
}

// Observation is a single daily discharge value in m³/s
type Observation struct {
	Date    time.Time
	Value   float64
	Missing bool
}

// YearContext holds the calendar and water-year labels of a date
type YearContext struct {
	CalendarYear      int
	CalendarDayOfYear int
	WaterYear         int
	WaterDayOfYear    int
}

// AlignedRow is an observation on the dense daily grid. Year and DayOfYear are
// the labels of the configured year type.
type AlignedRow struct {
	Observation
	YearContext

	Year      int
	DayOfYear int
}

// StationSeries is the shape returned by a retrieval source
type StationSeries struct {
	Station      string
	Name         string
	BasinArea    *float64 // km², nil when unknown
	Observations []Observation
}

// CumulativePoint is the running total of one year at one day
type CumulativePoint struct {
	Year      int
	DayOfYear int
	Value     float64

	// Missing is set when the day's own observation is missing. Value still carries
	// the running total up to the previous day.
	Missing bool

	// Incomplete is set on every point at or after the first missing day of the year.
	Incomplete bool
}

// PercentileValue is one entry of a summary's percentile set
type PercentileValue struct {
	P     float64 `json:"p"`
	Value float64 `json:"value"`
}

// DailyStatSummary is the cross-year summary for one day of the year. When NoData
// is set every statistic is NaN.
type DailyStatSummary struct {
	DayOfYear   int
	Month       time.Month
	Day         int
	Count       int
	Mean        float64
	Median      float64
	Min         float64
	Max         float64
	Percentiles []PercentileValue
	NoData      bool
}

// Percentile returns the value computed for p and whether p was requested
func (s DailyStatSummary) Percentile(p float64) (float64, bool) {
	for _, pv := range s.Percentiles {
		if pv.P == p {
			return pv.Value, true
		}
	}
	return 0, false
}

// DiagnosticKind classifies a non-fatal data-quality notice
type DiagnosticKind string

const (
	DiagnosticNegativeValue  DiagnosticKind = "negative_value"
	DiagnosticIncompleteYear DiagnosticKind = "incomplete_year"
	DiagnosticNoData         DiagnosticKind = "no_data"
)

// Diagnostic is a non-fatal notice returned alongside a result
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Year    int            `json:"year,omitempty"`
	Date    time.Time      `json:"date,omitempty"`
	Count   int            `json:"count,omitempty"`
	Message string         `json:"message"`
}
