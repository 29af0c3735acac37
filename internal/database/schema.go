package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const createFlowStationsTableSQL = `CREATE TABLE IF NOT EXISTS flow_stations (
    station_id text PRIMARY KEY,
    station_name text NOT NULL DEFAULT '',
    drainage_area_km2 float8 NULL
);`

const createDailyFlowsTableSQL = `CREATE TABLE IF NOT EXISTS daily_flows (
    station_id text NOT NULL,
    day date NOT NULL,
    value float8 NULL,
    PRIMARY KEY (station_id, day)
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('daily_flows', 'day', chunk_time_interval => INTERVAL '10 years', if_not_exists => true);`

// CreateSchema creates the flow archive tables and turns daily_flows into a
// hypertable. It is safe to run against an existing archive.
func CreateSchema(ctx context.Context, db *gorm.DB) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"create flow_stations table", createFlowStationsTableSQL},
		{"create daily_flows table", createDailyFlowsTableSQL},
		{"create timescaledb extension", createExtensionSQL},
		{"create daily_flows hypertable", createHypertableSQL},
	}
	for _, step := range steps {
		if err := db.WithContext(ctx).Exec(step.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// UpsertStation inserts or replaces the metadata of one station
func UpsertStation(ctx context.Context, db *gorm.DB, station FlowStation) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"station_name", "drainage_area_km2"}),
	}).Create(&station).Error
}

// UpsertDailyFlows writes flows in batches, replacing values already stored for the same day
func UpsertDailyFlows(ctx context.Context, db *gorm.DB, flows []DailyFlow) error {
	if len(flows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).CreateInBatches(flows, 1000).Error
}
