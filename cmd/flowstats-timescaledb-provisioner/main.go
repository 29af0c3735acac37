package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/flowstats/internal/database"
	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/log"
	"github.com/chrissnell/flowstats/internal/source/csvfile"
)

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)

	initConn := initCmd.String("connection-string", os.Getenv("FLOWSTATS_DB"), "PostgreSQL connection string (or FLOWSTATS_DB)")

	importConn := importCmd.String("connection-string", os.Getenv("FLOWSTATS_DB"), "PostgreSQL connection string (or FLOWSTATS_DB)")
	station := importCmd.String("station", "", "Station identifier (required)")
	name := importCmd.String("name", "", "Station name")
	area := importCmd.Float64("basin-area", 0, "Drainage area in km²")
	csvPath := importCmd.String("csv", "", "CSV file with Date and Value columns (required)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := log.Init(false); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		err = runInit(ctx, *initConn)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *station == "" || *csvPath == "" {
			importCmd.Usage()
			os.Exit(1)
		}
		err = runImport(ctx, *importConn, *station, *name, *area, *csvPath)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Errorf("%s failed: %v", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("flowstats TimescaleDB Provisioner")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  flowstats-timescaledb-provisioner init [flags]")
	fmt.Println("  flowstats-timescaledb-provisioner import [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init     Create the flow_stations and daily_flows tables")
	fmt.Println("  import   Load a station's daily discharge from a CSV file")
}

func runInit(ctx context.Context, connectionString string) error {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return err
	}
	if err := database.CreateSchema(ctx, db); err != nil {
		return err
	}
	log.Info("flow archive schema is ready")
	return nil
}

func runImport(ctx context.Context, connectionString, station, name string, area float64, csvPath string) error {
	obs, err := csvfile.ReadFile(csvPath)
	if err != nil {
		return err
	}

	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return err
	}

	meta := database.FlowStation{StationID: station, StationName: name}
	if area > 0 {
		meta.DrainageAreaKm2 = sql.NullFloat64{Float64: area, Valid: true}
	}
	if err := database.UpsertStation(ctx, db, meta); err != nil {
		return fmt.Errorf("writing station %s: %w", station, err)
	}
	if err := database.UpsertDailyFlows(ctx, db, dailyFlows(station, obs)); err != nil {
		return fmt.Errorf("writing daily flows for %s: %w", station, err)
	}
	log.Infof("imported %d days for station %s", len(obs), station)
	return nil
}

// dailyFlows converts observations into archive rows, storing missing days as NULL
func dailyFlows(station string, obs []flowstats.Observation) []database.DailyFlow {
	flows := make([]database.DailyFlow, len(obs))
	for i, o := range obs {
		flows[i] = database.DailyFlow{
			StationID: station,
			Day:       o.Date,
			Value:     sql.NullFloat64{Float64: o.Value, Valid: !o.Missing},
		}
	}
	return flows
}
