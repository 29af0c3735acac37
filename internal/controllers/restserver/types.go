package restserver

import (
	"github.com/chrissnell/flowstats/internal/flowstats"
)

// StationData describes a configured station for JSON output
type StationData struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Source    string  `json:"source"`
	BasinArea float64 `json:"basin_area,omitempty"`
}

// AnalysisResponse wraps one table of an analysis result with the parameters
// that produced it
type AnalysisResponse struct {
	Station       string                 `json:"station"`
	YearType      string                 `json:"year_type"`
	StartMonth    int                    `json:"start_month"`
	StartYear     int                    `json:"start_year"`
	EndYear       int                    `json:"end_year"`
	ExcludedYears []int                  `json:"excluded_years,omitempty"`
	Units         string                 `json:"units,omitempty"`
	BasinArea     *float64               `json:"basin_area,omitempty"`
	Columns       []string               `json:"columns"`
	Data          []map[string]any       `json:"data"`
	Diagnostics   []flowstats.Diagnostic `json:"diagnostics"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
