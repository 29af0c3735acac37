package database

import (
	"database/sql"
	"time"
)

// DailyFlow is one daily mean discharge value in m³/s. A NULL value marks a day
// that was recorded as missing.
type DailyFlow struct {
	StationID string          `gorm:"column:station_id;primaryKey"`
	Day       time.Time       `gorm:"column:day;type:date;primaryKey"`
	Value     sql.NullFloat64 `gorm:"column:value"`
}

// TableName specifies the table name for DailyFlow
func (DailyFlow) TableName() string {
	return "daily_flows"
}

// FlowStation holds station metadata
type FlowStation struct {
	StationID       string          `gorm:"column:station_id;primaryKey"`
	StationName     string          `gorm:"column:station_name"`
	DrainageAreaKm2 sql.NullFloat64 `gorm:"column:drainage_area_km2"`
}

// TableName specifies the table name for FlowStation
func (FlowStation) TableName() string {
	return "flow_stations"
}
