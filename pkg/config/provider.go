package config

import (
	"fmt"
	"time"

	"github.com/chrissnell/flowstats/internal/flowstats"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSources() ([]SourceData, error)
	GetStations() ([]StationData, error)
	GetAnalysis() (*AnalysisData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Sources  []SourceData  `json:"sources"`
	Stations []StationData `json:"stations,omitempty"`
	Analysis AnalysisData  `json:"analysis,omitempty"`
	Server   *ServerData   `json:"server,omitempty"`
}

// Source types
const (
	SourceTypeHYDAT       = "hydat"
	SourceTypeTimescaleDB = "timescaledb"
	SourceTypeCSV         = "csv"
)

// SourceData configures a hydrometric data source
type SourceData struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Path             string `json:"path,omitempty"`              // hydat: database file, csv: directory
	ConnectionString string `json:"connection_string,omitempty"` // timescaledb
}

// StationData names a station and the source it is read from
type StationData struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Source    string  `json:"source"`
	BasinArea float64 `json:"basin_area,omitempty"` // km², overrides source metadata when positive
}

// AnalysisData holds default analysis options
type AnalysisData struct {
	YearType          string    `json:"year_type,omitempty"`
	WaterYearStart    int       `json:"water_year_start,omitempty"`
	StartYear         int       `json:"start_year,omitempty"`
	EndYear           int       `json:"end_year,omitempty"`
	ExcludeYears      []int     `json:"exclude_years,omitempty"`
	CompleteYearsOnly bool      `json:"complete_years_only,omitempty"`
	RollDays          int       `json:"roll_days,omitempty"`
	Percentiles       []float64 `json:"percentiles,omitempty"`
	Units             string    `json:"units,omitempty"`
}

// ServerData configures the REST server
type ServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty"`
	Port        int    `json:"port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty"`
}

// ToOptions converts the analysis defaults into validated options
func (a AnalysisData) ToOptions() (flowstats.Options, error) {
	yearType, err := flowstats.ParseYearType(a.YearType)
	if err != nil {
		return flowstats.Options{}, err
	}
	units, err := flowstats.ParseUnits(a.Units)
	if err != nil {
		return flowstats.Options{}, err
	}

	opts := flowstats.Options{
		YearType:          yearType,
		WaterYearStart:    time.Month(a.WaterYearStart),
		StartYear:         a.StartYear,
		EndYear:           a.EndYear,
		ExcludeYears:      a.ExcludeYears,
		CompleteYearsOnly: a.CompleteYearsOnly,
		RollDays:          a.RollDays,
		Percentiles:       a.Percentiles,
		Units:             units,
	}
	if err := opts.Validate(); err != nil {
		return flowstats.Options{}, err
	}
	return opts, nil
}

// Validate checks cross references between sources and stations
func (c *ConfigData) Validate() error {
	sources := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source with type %q has no name", s.Type)
		}
		if sources[s.Name] {
			return fmt.Errorf("duplicate source name %q", s.Name)
		}
		switch s.Type {
		case SourceTypeHYDAT, SourceTypeCSV:
			if s.Path == "" {
				return fmt.Errorf("source %q of type %s requires a path", s.Name, s.Type)
			}
		case SourceTypeTimescaleDB:
			if s.ConnectionString == "" {
				return fmt.Errorf("source %q of type %s requires a connection_string", s.Name, s.Type)
			}
		default:
			return fmt.Errorf("source %q has unsupported type %q", s.Name, s.Type)
		}
		sources[s.Name] = true
	}

	for _, st := range c.Stations {
		if st.ID == "" {
			return fmt.Errorf("station with no id")
		}
		if !sources[st.Source] {
			return fmt.Errorf("station %s refers to unknown source %q", st.ID, st.Source)
		}
		if st.BasinArea < 0 {
			return fmt.Errorf("station %s has negative basin area %g", st.ID, st.BasinArea)
		}
	}

	if _, err := c.Analysis.ToOptions(); err != nil {
		return fmt.Errorf("analysis defaults: %w", err)
	}
	return nil
}
