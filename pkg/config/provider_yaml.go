package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

type sourceYAML struct {
	Name             string `yaml:"name"`
	Type             string `yaml:"type"`
	Path             string `yaml:"path,omitempty"`
	ConnectionString string `yaml:"connection_string,omitempty"`
}

type stationYAML struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name,omitempty"`
	Source    string  `yaml:"source"`
	BasinArea float64 `yaml:"basin_area,omitempty"`
}

type analysisYAML struct {
	YearType          string    `yaml:"year_type,omitempty"`
	WaterYearStart    int       `yaml:"water_year_start,omitempty"`
	StartYear         int       `yaml:"start_year,omitempty"`
	EndYear           int       `yaml:"end_year,omitempty"`
	ExcludeYears      []int     `yaml:"exclude_years,omitempty"`
	CompleteYearsOnly bool      `yaml:"complete_years_only,omitempty"`
	RollDays          int       `yaml:"roll_days,omitempty"`
	Percentiles       []float64 `yaml:"percentiles,omitempty"`
	Units             string    `yaml:"units,omitempty"`
}

type serverYAML struct {
	ListenAddr  string `yaml:"listen_addr,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	TLSCertPath string `yaml:"tls_cert_path,omitempty"`
	TLSKeyPath  string `yaml:"tls_key_path,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Sources  []sourceYAML  `yaml:"sources"`
		Stations []stationYAML `yaml:"stations,omitempty"`
		Analysis analysisYAML  `yaml:"analysis,omitempty"`
		Server   *serverYAML   `yaml:"server,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Sources:  make([]SourceData, len(yamlConfig.Sources)),
		Stations: make([]StationData, len(yamlConfig.Stations)),
		Analysis: AnalysisData(yamlConfig.Analysis),
	}

	for i, s := range yamlConfig.Sources {
		config.Sources[i] = SourceData(s)
	}
	for i, st := range yamlConfig.Stations {
		config.Stations[i] = StationData(st)
	}
	if yamlConfig.Server != nil {
		server := ServerData(*yamlConfig.Server)
		config.Server = &server
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// GetSources returns source configurations
func (y *YAMLProvider) GetSources() ([]SourceData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Sources, nil
}

// GetStations returns station configurations
func (y *YAMLProvider) GetStations() ([]StationData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return config.Stations, nil
}

// GetAnalysis returns the analysis defaults
func (y *YAMLProvider) GetAnalysis() (*AnalysisData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Analysis, nil
}

// IsReadOnly returns true since YAML files are treated as read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
