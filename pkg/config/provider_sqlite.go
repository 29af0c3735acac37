package config

import (
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/chrissnell/flowstats/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens dbPath and brings its schema up to date
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrate.NewFSProvider(migrationFS, "migrations", "schema_migrations"), nil)
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate SQLite config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	sources, err := s.GetSources()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	config.Sources = sources

	stations, err := s.GetStations()
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	config.Stations = stations

	analysis, err := s.GetAnalysis()
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis defaults: %w", err)
	}
	config.Analysis = *analysis

	server, err := s.getServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	config.Server = server

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetSources returns source configurations from the database
func (s *SQLiteProvider) GetSources() ([]SourceData, error) {
	rows, err := s.db.Query(`SELECT name, type, path, connection_string FROM sources ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []SourceData
	for rows.Next() {
		var src SourceData
		if err := rows.Scan(&src.Name, &src.Type, &src.Path, &src.ConnectionString); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetStations returns station configurations from the database
func (s *SQLiteProvider) GetStations() ([]StationData, error) {
	rows, err := s.db.Query(`SELECT id, name, source, basin_area FROM stations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []StationData
	for rows.Next() {
		var st StationData
		if err := rows.Scan(&st.ID, &st.Name, &st.Source, &st.BasinArea); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// GetAnalysis returns the analysis defaults, or zero defaults if none are stored
func (s *SQLiteProvider) GetAnalysis() (*AnalysisData, error) {
	var (
		a                         AnalysisData
		excludeYears, percentiles string
		completeOnly              int
	)
	err := s.db.QueryRow(`
		SELECT year_type, water_year_start, start_year, end_year, exclude_years,
		       complete_years_only, roll_days, percentiles, units
		FROM analysis WHERE id = 1
	`).Scan(&a.YearType, &a.WaterYearStart, &a.StartYear, &a.EndYear, &excludeYears,
		&completeOnly, &a.RollDays, &percentiles, &a.Units)
	if err == sql.ErrNoRows {
		return &AnalysisData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis defaults: %w", err)
	}
	a.CompleteYearsOnly = completeOnly != 0

	if a.ExcludeYears, err = parseList(excludeYears, strconv.Atoi); err != nil {
		return nil, fmt.Errorf("invalid exclude_years %q: %w", excludeYears, err)
	}
	if a.Percentiles, err = parseList(percentiles, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}); err != nil {
		return nil, fmt.Errorf("invalid percentiles %q: %w", percentiles, err)
	}
	return &a, nil
}

func (s *SQLiteProvider) getServer() (*ServerData, error) {
	var srv ServerData
	err := s.db.QueryRow(`SELECT listen_addr, port, tls_cert_path, tls_key_path FROM server WHERE id = 1`).
		Scan(&srv.ListenAddr, &srv.Port, &srv.TLSCertPath, &srv.TLSKeyPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query server config: %w", err)
	}
	return &srv, nil
}

// SaveConfig replaces the stored configuration with cfg in a single transaction
func (s *SQLiteProvider) SaveConfig(cfg *ConfigData) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stations", "sources", "analysis", "server"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, src := range cfg.Sources {
		if _, err := tx.Exec(`INSERT INTO sources (name, type, path, connection_string) VALUES (?, ?, ?, ?)`,
			src.Name, src.Type, src.Path, src.ConnectionString); err != nil {
			return fmt.Errorf("failed to insert source %s: %w", src.Name, err)
		}
	}

	for _, st := range cfg.Stations {
		if _, err := tx.Exec(`INSERT INTO stations (id, name, source, basin_area) VALUES (?, ?, ?, ?)`,
			st.ID, st.Name, st.Source, st.BasinArea); err != nil {
			return fmt.Errorf("failed to insert station %s: %w", st.ID, err)
		}
	}

	a := cfg.Analysis
	completeOnly := 0
	if a.CompleteYearsOnly {
		completeOnly = 1
	}
	if _, err := tx.Exec(`
		INSERT INTO analysis (id, year_type, water_year_start, start_year, end_year, exclude_years,
		                      complete_years_only, roll_days, percentiles, units)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.YearType, a.WaterYearStart, a.StartYear, a.EndYear, joinList(a.ExcludeYears, strconv.Itoa),
		completeOnly, a.RollDays, joinList(a.Percentiles, func(f float64) string {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}), a.Units); err != nil {
		return fmt.Errorf("failed to insert analysis defaults: %w", err)
	}

	if cfg.Server != nil {
		if _, err := tx.Exec(`INSERT INTO server (id, listen_addr, port, tls_cert_path, tls_key_path) VALUES (1, ?, ?, ?, ?)`,
			cfg.Server.ListenAddr, cfg.Server.Port, cfg.Server.TLSCertPath, cfg.Server.TLSKeyPath); err != nil {
			return fmt.Errorf("failed to insert server config: %w", err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func parseList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]T, 0, len(parts))
	for _, p := range parts {
		v, err := parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func joinList[T any](values []T, format func(T) string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = format(v)
	}
	return strings.Join(parts, ",")
}
