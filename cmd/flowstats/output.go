package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/pkg/responseformat"
)

// writeResult writes the daily, cumulative and per-year tables of res next to
// prefix and returns the paths written
func writeResult(prefix string, format responseformat.Format, res *flowstats.Result) ([]string, error) {
	base := filepath.Base(prefix)
	tables := []flowstats.Table{
		flowstats.SummaryTable(base+"_daily_stats", res.Summary),
		flowstats.SummaryTable(base+"_cumulative_stats", res.CumulativeSummary),
		flowstats.YearsTable(base+"_years", res.Years),
	}

	var written []string
	for _, t := range tables {
		path := filepath.Join(filepath.Dir(prefix), t.Name+format.Extension())
		if err := writeTableFile(path, format, responseformat.Table(t)); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeTableFile encodes t into a temporary file beside path and renames it into
// place, so readers never see a partial table
func writeTableFile(path string, format responseformat.Format, t responseformat.Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := responseformat.Encode(tmp, format, t); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmp.Name(), path, err)
	}
	return nil
}
