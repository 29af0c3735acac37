package flowstats

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Fetcher retrieves the daily series of a station from an external source
type Fetcher interface {
	FetchDaily(ctx context.Context, station string) (*StationSeries, error)
}

// Input holds exactly one of an inline series or a station identifier
type Input struct {
	Series  []Observation
	Station string
}

func (in Input) validate() error {
	hasSeries := in.Series != nil
	hasStation := in.Station != ""
	switch {
	case hasSeries && hasStation:
		return fmt.Errorf("%w: both an inline series and station %q were supplied", ErrConflictingInput, in.Station)
	case !hasSeries && !hasStation:
		return fmt.Errorf("%w: neither an inline series nor a station was supplied", ErrConflictingInput)
	}
	return nil
}

// Request is one analysis invocation
type Request struct {
	Input   Input
	Options Options
}

// YearPoint is one day of a single year, aligned to the day-of-year axis
type YearPoint struct {
	DayOfYear         int
	Date              time.Time
	Value             float64
	Missing           bool
	Cumulative        float64
	CumulativeMissing bool
	Incomplete        bool
}

// YearSeries is the aligned raw and cumulative series of one retained year
type YearSeries struct {
	Year   int
	Points []YearPoint
}

// Result is the output of an analysis run
type Result struct {
	Station    string
	BasinArea  *float64
	YearType   YearType
	StartMonth time.Month
	Window     AnalysisWindow
	Units      Units

	Summary           []DailyStatSummary
	CumulativeSummary []DailyStatSummary
	Years             []YearSeries
	Diagnostics       []Diagnostic
}

// Assembler sequences alignment, filtering, accumulation and aggregation
type Assembler struct {
	fetcher Fetcher
	logger  *zap.SugaredLogger
}

// NewAssembler creates an assembler. fetcher may be nil when only inline series
// will be analysed.
func NewAssembler(fetcher Fetcher, logger *zap.SugaredLogger) *Assembler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Assembler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Run validates the request, resolves the series and computes all outputs. No
// partial result is returned on error.
func (a *Assembler) Run(ctx context.Context, req Request) (*Result, error) {
	opts := req.Options
	if err := req.Input.validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	series, err := a.resolveSeries(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	basinArea := opts.BasinArea
	if basinArea == nil {
		basinArea = series.BasinArea
	}
	if _, err := unitFactor(opts.Units, basinArea); err != nil {
		return nil, err
	}

	start := opts.StartMonth()
	rows, diags, err := Align(series.Observations, opts.YearType, start)
	if err != nil {
		return nil, err
	}
	a.logger.Debugf("aligned %d observations for %s onto %d days (%s years starting %s)",
		len(series.Observations), series.Station, len(rows), opts.YearType, start)

	if opts.RollDays > 1 {
		rows = Rolling(rows, opts.RollDays)
	}

	window, err := ResolveWindow(rows, opts.Window())
	if err != nil {
		return nil, err
	}
	rows = FilterYears(rows, window)
	if opts.CompleteYearsOnly {
		rows = CompleteYears(rows)
	}
	a.logger.Debugf("retained %d days in window %d-%d excluding %v", len(rows), window.StartYear, window.EndYear, window.ExcludeYears)

	summary, err := Summarize(SamplesFromRows(rows), opts.Percentiles, start)
	if err != nil {
		return nil, err
	}

	cumulative, cumDiags, err := Cumulate(rows, opts.Units, basinArea)
	if err != nil {
		return nil, err
	}
	diags = append(diags, cumDiags...)

	cumSummary, err := Summarize(SamplesFromCumulative(cumulative), opts.Percentiles, start)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		diags = append(diags, Diagnostic{
			Kind:    DiagnosticNoData,
			Message: fmt.Sprintf("no observations remain in window %d-%d", window.StartYear, window.EndYear),
		})
	}

	res := &Result{
		Station:           series.Station,
		BasinArea:         basinArea,
		YearType:          opts.YearType,
		StartMonth:        start,
		Window:            window,
		Units:             opts.Units,
		Summary:           summary,
		CumulativeSummary: cumSummary,
		Years:             buildYears(rows, cumulative),
		Diagnostics:       diags,
	}

	a.logger.Infow("daily statistics computed",
		"station", res.Station,
		"year_type", res.YearType.String(),
		"start_year", window.StartYear,
		"end_year", window.EndYear,
		"years", len(res.Years),
		"units", res.Units.String(),
		"diagnostics", len(diags),
	)
	return res, nil
}

func (a *Assembler) resolveSeries(ctx context.Context, in Input) (*StationSeries, error) {
	if in.Series != nil {
		return &StationSeries{Observations: in.Series}, nil
	}
	if a.fetcher == nil {
		return nil, fmt.Errorf("%w: station %q requested but no source is configured", ErrInvalidInput, in.Station)
	}

	series, err := a.fetcher.FetchDaily(ctx, in.Station)
	if err != nil {
		return nil, fmt.Errorf("fetching station %s: %w", in.Station, err)
	}
	if series.Station == "" {
		series.Station = in.Station
	}
	return series, nil
}

// buildYears pairs every retained row with its running total. rows and points
// are both ordered by year then day, with one point per row.
func buildYears(rows []AlignedRow, points []CumulativePoint) []YearSeries {
	type key struct{ year, doy int }
	cum := make(map[key]CumulativePoint, len(points))
	for _, p := range points {
		cum[key{p.Year, p.DayOfYear}] = p
	}

	var years []YearSeries
	idx := make(map[int]int)
	for _, r := range rows {
		i, ok := idx[r.Year]
		if !ok {
			i = len(years)
			idx[r.Year] = i
			years = append(years, YearSeries{Year: r.Year})
		}
		p := cum[key{r.Year, r.DayOfYear}]
		years[i].Points = append(years[i].Points, YearPoint{
			DayOfYear:         r.DayOfYear,
			Date:              r.Date,
			Value:             r.Value,
			Missing:           r.Missing,
			Cumulative:        p.Value,
			CumulativeMissing: p.Missing,
			Incomplete:        p.Incomplete,
		})
	}
	return years
}
