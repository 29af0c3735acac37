package flowstats

import (
	"fmt"
	"time"
)

// DefaultWaterYearStart is used when water years are requested without a start month
const DefaultWaterYearStart = time.October

// Options configures a single analysis run. The zero value is a calendar-year,
// volume-unit analysis over every year in the series with the default percentiles.
type Options struct {
	YearType YearType

	// WaterYearStart is the first month of the water year. Ignored for calendar
	// years; zero means DefaultWaterYearStart.
	WaterYearStart time.Month

	// StartYear and EndYear bound the analysed years; zero means the earliest or
	// latest year present.
	StartYear    int
	EndYear      int
	ExcludeYears []int

	// CompleteYearsOnly drops every year with a missing day.
	CompleteYearsOnly bool

	// RollDays applies a trailing rolling mean of this many days before
	// aggregation. Zero or one disables smoothing.
	RollDays int

	// Percentiles in the 0-100 range; nil means DefaultPercentiles.
	Percentiles []float64

	Units Units

	// BasinArea in km². Required for yield units; nil means take it from the
	// station metadata.
	BasinArea *float64
}

// StartMonth returns the first month of the analysis year.
func (o Options) StartMonth() time.Month {
	if o.YearType != YearTypeWater {
		return time.January
	}
	if o.WaterYearStart == 0 {
		return DefaultWaterYearStart
	}
	return o.WaterYearStart
}

// Window returns the configured analysis window.
func (o Options) Window() AnalysisWindow {
	return AnalysisWindow{StartYear: o.StartYear, EndYear: o.EndYear, ExcludeYears: o.ExcludeYears}
}

// Validate checks every option that does not depend on the data.
func (o Options) Validate() error {
	switch o.YearType {
	case YearTypeCalendar, YearTypeWater:
	default:
		return fmt.Errorf("%w: unknown year type %v", ErrInvalidParameter, o.YearType)
	}

	if o.YearType == YearTypeWater && o.WaterYearStart != 0 &&
		(o.WaterYearStart < time.January || o.WaterYearStart > time.December) {
		return fmt.Errorf("%w: water year start month %d outside 1-12", ErrInvalidParameter, o.WaterYearStart)
	}

	if o.StartYear != 0 && o.EndYear != 0 && o.StartYear > o.EndYear {
		return fmt.Errorf("%w: start year %d is after end year %d", ErrInvalidRange, o.StartYear, o.EndYear)
	}

	if o.RollDays < 0 {
		return fmt.Errorf("%w: roll days must not be negative, got %d", ErrInvalidParameter, o.RollDays)
	}

	if err := validatePercentiles(o.Percentiles); err != nil {
		return err
	}

	switch o.Units {
	case UnitsVolume:
	case UnitsYield:
		if o.BasinArea != nil && *o.BasinArea <= 0 {
			return fmt.Errorf("%w: basin area must be positive, got %g", ErrInvalidParameter, *o.BasinArea)
		}
	default:
		return fmt.Errorf("%w: unknown units %v", ErrInvalidParameter, o.Units)
	}
	return nil
}
