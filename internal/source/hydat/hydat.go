// Package hydat reads daily discharge from a HYDAT SQLite database, the national
// hydrometric archive distributed by the Water Survey of Canada.
package hydat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// maxDays is the number of FLOWn columns in DLY_FLOWS
const maxDays = 31

var dailyFlowsQuery = buildDailyFlowsQuery()

func buildDailyFlowsQuery() string {
	cols := make([]string, maxDays)
	for i := range cols {
		cols[i] = fmt.Sprintf("FLOW%d", i+1)
	}
	return `SELECT YEAR, MONTH, NO_DAYS, ` + strings.Join(cols, ", ") + `
		FROM DLY_FLOWS
		WHERE STATION_NUMBER = ?
		ORDER BY YEAR, MONTH`
}

// Source reads one HYDAT database file
type Source struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

// Open opens the HYDAT database at path
func Open(path string, logger *zap.SugaredLogger) (*Source, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open HYDAT database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping HYDAT database %s: %w", path, err)
	}
	return &Source{db: db, path: path, logger: logger}, nil
}

// FetchDaily returns every daily discharge value recorded for station. The
// station's gross drainage area is reported as the basin area when present.
func (s *Source) FetchDaily(ctx context.Context, station string) (*flowstats.StationSeries, error) {
	series := &flowstats.StationSeries{Station: station}

	var (
		name sql.NullString
		area sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT STATION_NAME, DRAINAGE_AREA_GROSS FROM STATIONS WHERE STATION_NUMBER = ?`,
		station,
	).Scan(&name, &area)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s is not in HYDAT", source.ErrStationNotFound, station)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query HYDAT station %s: %w", station, err)
	}
	series.Name = name.String
	if area.Valid && area.Float64 > 0 {
		a := area.Float64
		series.BasinArea = &a
	}

	rows, err := s.db.QueryContext(ctx, dailyFlowsQuery, station)
	if err != nil {
		return nil, fmt.Errorf("failed to query HYDAT daily flows for %s: %w", station, err)
	}
	defer rows.Close()

	flows := make([]sql.NullFloat64, maxDays)
	dest := make([]any, 0, maxDays+3)
	var year, month, days int
	dest = append(dest, &year, &month, &days)
	for i := range flows {
		dest = append(dest, &flows[i])
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan HYDAT row: %w", err)
		}
		if month < 1 || month > 12 || days < 1 || days > maxDays {
			return nil, fmt.Errorf("%w: HYDAT row %d-%02d for %s has %d days", flowstats.ErrInvalidInput, year, month, station, days)
		}
		for d := 1; d <= days; d++ {
			f := flows[d-1]
			series.Observations = append(series.Observations, flowstats.Observation{
				Date:    time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC),
				Value:   f.Float64,
				Missing: !f.Valid,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating HYDAT rows: %w", err)
	}

	s.logger.Debugf("read %d daily values for %s (%s) from %s", len(series.Observations), station, series.Name, s.path)
	return series, nil
}

// Close closes the database
func (s *Source) Close() error {
	return s.db.Close()
}
