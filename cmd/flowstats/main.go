package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/flowstats/internal/app"
	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/log"
	"github.com/chrissnell/flowstats/internal/managers"
	"github.com/chrissnell/flowstats/internal/source/csvfile"
	"github.com/chrissnell/flowstats/pkg/config"
	"github.com/chrissnell/flowstats/pkg/responseformat"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

type cliFlags struct {
	configFile     string
	configBackend  string
	station        string
	csvPath        string
	yearType       string
	waterYearStart int
	startYear      int
	endYear        int
	exclude        string
	completeOnly   bool
	rollDays       int
	percentiles    string
	units          string
	basinArea      float64
	format         string
	out            string
}

func main() {
	var f cliFlags
	flag.StringVar(&f.configFile, "config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Use 'config-convert' tool to convert YAML→SQLite")
	flag.StringVar(&f.configBackend, "config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	flag.StringVar(&f.station, "station", "", "Station identifier to fetch from the configured sources")
	flag.StringVar(&f.csvPath, "csv", "", "Path to a CSV file with Date and Value columns, analysed instead of a station")
	flag.StringVar(&f.yearType, "year-type", "", "Year grouping: 'calendar' or 'water'")
	flag.IntVar(&f.waterYearStart, "water-year-start", 0, "First month of the water year (1-12, default 10)")
	flag.IntVar(&f.startYear, "start-year", 0, "First year to analyse (default: earliest in the data)")
	flag.IntVar(&f.endYear, "end-year", 0, "Last year to analyse (default: latest in the data)")
	flag.StringVar(&f.exclude, "exclude", "", "Comma-separated years to exclude")
	flag.BoolVar(&f.completeOnly, "complete-years-only", false, "Drop every year with a missing day")
	flag.IntVar(&f.rollDays, "roll-days", 0, "Apply a trailing rolling mean of this many days")
	flag.StringVar(&f.percentiles, "percentiles", "", "Comma-separated percentiles (default 5,25,75,95)")
	flag.StringVar(&f.units, "units", "", "Cumulative units: 'volume' (m³) or 'yield' (mm)")
	flag.Float64Var(&f.basinArea, "basin-area", 0, "Basin area in km², overriding the station metadata")
	flag.StringVar(&f.format, "format", "csv", "Output format: csv, json, msgpack or xlsx")
	flag.StringVar(&f.out, "out", "", "Output file prefix (default: station id or CSV file name)")
	serve := flag.Bool("serve", false, "Run the REST server instead of a single analysis")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("flowstats %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if *serve {
		provider, err := loadConfig(f.configFile, f.configBackend)
		if err != nil {
			log.Errorf("Failed to load configuration: %v", err)
			os.Exit(1)
		}
		defer provider.Close()

		application := app.New(provider, log.GetSugaredLogger())
		if err := application.Run(context.Background()); err != nil {
			log.Errorf("Application error: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := runAnalysis(context.Background(), f, set); err != nil {
		log.Errorf("Analysis failed: %v", err)
		os.Exit(1)
	}
}

// runAnalysis analyses one station or CSV file and writes the result tables
func runAnalysis(ctx context.Context, f cliFlags, set map[string]bool) error {
	format, err := responseformat.ParseFormat(f.format)
	if err != nil {
		return err
	}

	// The configuration is required for stations. A CSV analysis takes its
	// defaults from it when the file exists.
	var provider config.ConfigProvider
	if f.station != "" || set["config"] || fileExists(f.configFile) {
		provider, err = loadConfig(f.configFile, f.configBackend)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		defer provider.Close()
	}

	opts := flowstats.Options{}
	if provider != nil {
		analysis, err := provider.GetAnalysis()
		if err != nil {
			return err
		}
		if opts, err = analysis.ToOptions(); err != nil {
			return fmt.Errorf("invalid analysis defaults: %w", err)
		}
	}
	if opts, err = applyFlags(opts, f, set); err != nil {
		return err
	}

	req := flowstats.Request{Options: opts}
	var fetcher flowstats.Fetcher
	prefix := f.out

	if f.csvPath != "" {
		obs, err := csvfile.ReadFile(f.csvPath)
		if err != nil {
			return err
		}
		req.Input.Series = obs
		if prefix == "" {
			prefix = strings.TrimSuffix(f.csvPath, filepath.Ext(f.csvPath))
		}
	}
	if f.station != "" {
		registry, err := managers.NewSourceRegistry(provider, log.Named("sources"))
		if err != nil {
			return err
		}
		defer registry.Close()
		fetcher = registry
		req.Input.Station = f.station
		if prefix == "" {
			prefix = f.station
		}
	}

	assembler := flowstats.NewAssembler(fetcher, log.Named("assembler"))
	res, err := assembler.Run(ctx, req)
	if err != nil {
		return err
	}

	for _, d := range res.Diagnostics {
		log.Warnw("diagnostic", "kind", d.Kind, "year", d.Year, "count", d.Count, "message", d.Message)
	}

	written, err := writeResult(prefix, format, res)
	if err != nil {
		return err
	}
	for _, path := range written {
		log.Infof("wrote %s", path)
	}
	return nil
}

// applyFlags overlays explicitly set flags on opts
func applyFlags(opts flowstats.Options, f cliFlags, set map[string]bool) (flowstats.Options, error) {
	var err error
	if set["year-type"] {
		if opts.YearType, err = flowstats.ParseYearType(f.yearType); err != nil {
			return opts, err
		}
	}
	if set["water-year-start"] {
		opts.WaterYearStart = time.Month(f.waterYearStart)
	}
	if set["start-year"] {
		opts.StartYear = f.startYear
	}
	if set["end-year"] {
		opts.EndYear = f.endYear
	}
	if set["exclude"] {
		if opts.ExcludeYears, err = splitList(f.exclude, strconv.Atoi); err != nil {
			return opts, fmt.Errorf("%w: -exclude: %v", flowstats.ErrInvalidParameter, err)
		}
	}
	if set["complete-years-only"] {
		opts.CompleteYearsOnly = f.completeOnly
	}
	if set["roll-days"] {
		opts.RollDays = f.rollDays
	}
	if set["percentiles"] {
		parse := func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
		if opts.Percentiles, err = splitList(f.percentiles, parse); err != nil {
			return opts, fmt.Errorf("%w: -percentiles: %v", flowstats.ErrInvalidParameter, err)
		}
	}
	if set["units"] {
		if opts.Units, err = flowstats.ParseUnits(f.units); err != nil {
			return opts, err
		}
	}
	if set["basin-area"] {
		area := f.basinArea
		opts.BasinArea = &area
	}
	return opts, opts.Validate()
}

func splitList[T any](s string, parse func(string) (T, error)) ([]T, error) {
	var out []T
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
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

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func loadConfig(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		p, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		provider = p
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}

	if _, err := provider.LoadConfig(); err != nil {
		provider.Close()
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found. Did you pass the -config flag? Run with -h for help: %w", filename, err)
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return provider, nil
}
