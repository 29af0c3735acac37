// Package timescaledb reads daily discharge from a TimescaleDB flow archive.
package timescaledb

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrissnell/flowstats/internal/database"
	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Source reads the daily_flows and flow_stations tables
type Source struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New connects to the archive at connectionString
func New(connectionString string, logger *zap.SugaredLogger) (*Source, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, fmt.Errorf("could not connect to flow archive: %w", err)
	}
	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an existing GORM handle
func NewWithDB(db *gorm.DB, logger *zap.SugaredLogger) *Source {
	return &Source{db: db, logger: logger}
}

// FetchDaily returns every stored daily value for station
func (s *Source) FetchDaily(ctx context.Context, station string) (*flowstats.StationSeries, error) {
	var meta database.FlowStation
	err := s.db.WithContext(ctx).Where("station_id = ?", station).Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s is not in the flow archive", source.ErrStationNotFound, station)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying flow_stations for %s: %w", station, err)
	}

	var flows []database.DailyFlow
	if err := s.db.WithContext(ctx).Where("station_id = ?", station).Order("day").Find(&flows).Error; err != nil {
		return nil, fmt.Errorf("error querying daily_flows for %s: %w", station, err)
	}

	s.logger.Debugf("read %d daily values for %s from TimescaleDB", len(flows), station)
	return toSeries(meta, flows), nil
}

func toSeries(meta database.FlowStation, flows []database.DailyFlow) *flowstats.StationSeries {
	series := &flowstats.StationSeries{
		Station:      meta.StationID,
		Name:         meta.StationName,
		Observations: make([]flowstats.Observation, len(flows)),
	}
	if meta.DrainageAreaKm2.Valid && meta.DrainageAreaKm2.Float64 > 0 {
		area := meta.DrainageAreaKm2.Float64
		series.BasinArea = &area
	}
	for i, f := range flows {
		series.Observations[i] = flowstats.Observation{
			Date:    f.Day,
			Value:   f.Value.Float64,
			Missing: !f.Value.Valid,
		}
	}
	return series
}

// Close closes the underlying connection pool
func (s *Source) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
