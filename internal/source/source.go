// Package source routes station requests to the hydrometric data source that
// holds them.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/pkg/config"
	"go.uber.org/zap"
)

// ErrStationNotFound is returned when no source holds data for a station
var ErrStationNotFound = errors.New("station not found")

// Registry implements flowstats.Fetcher over a set of named sources
type Registry struct {
	sources       map[string]flowstats.Fetcher
	stations      map[string]config.StationData
	defaultSource string
	logger        *zap.SugaredLogger
}

// NewRegistry creates a registry. Stations absent from stations are looked up in
// defaultSource, if it is set.
func NewRegistry(sources map[string]flowstats.Fetcher, stations []config.StationData, defaultSource string, logger *zap.SugaredLogger) *Registry {
	byID := make(map[string]config.StationData, len(stations))
	for _, st := range stations {
		byID[st.ID] = st
	}
	return &Registry{
		sources:       sources,
		stations:      byID,
		defaultSource: defaultSource,
		logger:        logger,
	}
}

// FetchDaily retrieves the series for station from its configured source. A
// positive configured basin area replaces the one reported by the source.
func (r *Registry) FetchDaily(ctx context.Context, station string) (*flowstats.StationSeries, error) {
	st, configured := r.stations[station]
	sourceName := st.Source
	if !configured {
		if r.defaultSource == "" {
			return nil, fmt.Errorf("%w: %s is not configured", ErrStationNotFound, station)
		}
		sourceName = r.defaultSource
	}

	src, ok := r.sources[sourceName]
	if !ok {
		return nil, fmt.Errorf("station %s refers to unknown source %q", station, sourceName)
	}

	r.logger.Debugf("fetching daily series for %s from source %s", station, sourceName)
	series, err := src.FetchDaily(ctx, station)
	if err != nil {
		return nil, err
	}

	if configured {
		if st.BasinArea > 0 {
			area := st.BasinArea
			series.BasinArea = &area
		}
		if st.Name != "" {
			series.Name = st.Name
		}
	}
	return series, nil
}

// Stations returns the configured stations sorted by id
func (r *Registry) Stations() []config.StationData {
	out := make([]config.StationData, 0, len(r.stations))
	for _, st := range r.stations {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Known reports whether station can be routed to a source
func (r *Registry) Known(station string) bool {
	_, ok := r.stations[station]
	return ok || r.defaultSource != ""
}

// Close closes every source that holds resources
func (r *Registry) Close() error {
	var errs []error
	for name, src := range r.sources {
		if c, ok := src.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing source %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}
