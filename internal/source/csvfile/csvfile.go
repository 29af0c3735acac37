// Package csvfile reads daily discharge series from delimited text files with a
// Date,Value header.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"go.uber.org/zap"
)

// Source serves <station>.csv files from a directory
type Source struct {
	dir    string
	logger *zap.SugaredLogger
}

// New creates a source over dir
func New(dir string, logger *zap.SugaredLogger) *Source {
	return &Source{dir: dir, logger: logger}
}

// FetchDaily reads <dir>/<station>.csv
func (s *Source) FetchDaily(ctx context.Context, station string) (*flowstats.StationSeries, error) {
	if station == "" || station != filepath.Base(station) || strings.HasPrefix(station, ".") {
		return nil, fmt.Errorf("%w: invalid station id %q", source.ErrStationNotFound, station)
	}

	path := filepath.Join(s.dir, station+".csv")
	obs, err := ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no file for %s in %s", source.ErrStationNotFound, station, s.dir)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debugf("read %d daily values for %s from %s", len(obs), station, path)
	return &flowstats.StationSeries{Station: station, Observations: obs}, nil
}

// ReadFile parses a single series file
func ReadFile(path string) ([]flowstats.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	obs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// Read parses a series from r. The header must name a Date and a Value column,
// in any position and case; other columns are ignored.
func Read(r io.Reader) ([]flowstats.Observation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", flowstats.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", flowstats.ErrInvalidInput, err)
	}

	dateCol, valueCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			dateCol = i
		case "value", "flow", "discharge":
			valueCol = i
		}
	}
	if dateCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("%w: header %v needs Date and Value columns", flowstats.ErrInvalidInput, header)
	}

	var records []flowstats.RawRecord
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", flowstats.ErrInvalidInput, err)
		}
		records = append(records, flowstats.RawRecord{Date: rec[dateCol], Value: rec[valueCol]})
	}
	return flowstats.ParseObservations(records)
}
