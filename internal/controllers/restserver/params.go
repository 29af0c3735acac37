package restserver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/flowstats/internal/flowstats"
)

// optionsFromQuery overlays the query parameters of a request on the server's
// analysis defaults. Parameters that are absent keep their default.
func optionsFromQuery(q url.Values, defaults flowstats.Options) (flowstats.Options, error) {
	opts := defaults

	if v := q.Get("year_type"); v != "" {
		yt, err := flowstats.ParseYearType(v)
		if err != nil {
			return opts, err
		}
		opts.YearType = yt
	}
	if v := q.Get("water_year_start"); v != "" {
		m, err := parseInt("water_year_start", v)
		if err != nil {
			return opts, err
		}
		opts.WaterYearStart = time.Month(m)
	}
	if v := q.Get("start_year"); v != "" {
		y, err := parseInt("start_year", v)
		if err != nil {
			return opts, err
		}
		opts.StartYear = y
	}
	if v := q.Get("end_year"); v != "" {
		y, err := parseInt("end_year", v)
		if err != nil {
			return opts, err
		}
		opts.EndYear = y
	}
	if v := q.Get("exclude"); v != "" {
		years, err := parseList(v, func(s string) (int, error) { return parseInt("exclude", s) })
		if err != nil {
			return opts, err
		}
		opts.ExcludeYears = years
	}
	if v := q.Get("complete_years_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: complete_years_only %q is not a boolean", flowstats.ErrInvalidParameter, v)
		}
		opts.CompleteYearsOnly = b
	}
	if v := q.Get("roll_days"); v != "" {
		n, err := parseInt("roll_days", v)
		if err != nil {
			return opts, err
		}
		opts.RollDays = n
	}
	if v := q.Get("percentiles"); v != "" {
		ps, err := parseList(v, func(s string) (float64, error) { return parseFloat("percentiles", s) })
		if err != nil {
			return opts, err
		}
		opts.Percentiles = ps
	}
	if v := q.Get("units"); v != "" {
		u, err := flowstats.ParseUnits(v)
		if err != nil {
			return opts, err
		}
		opts.Units = u
	}
	if v := q.Get("basin_area"); v != "" {
		a, err := parseFloat("basin_area", v)
		if err != nil {
			return opts, err
		}
		opts.BasinArea = &a
	}

	return opts, opts.Validate()
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", flowstats.ErrInvalidParameter, name, s)
	}
	return n, nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", flowstats.ErrInvalidParameter, name, s)
	}
	return f, nil
}

func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	var out []T
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
