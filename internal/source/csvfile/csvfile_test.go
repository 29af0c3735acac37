package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRead(t *testing.T) {
	obs, err := Read(strings.NewReader("STATION,Date,Value,Symbol\n08MF005,2000-01-01,12.5,\n08MF005,2000-01-02,NA,B\n"))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 12.5, obs[0].Value)
	assert.True(t, obs[1].Missing)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no value column", "Date,Stage\n2000-01-01,3\n"},
		{"non-numeric value", "Date,Value\n2000-01-01,lots\n"},
		{"bad date", "Date,Value\n1/1/2000,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, flowstats.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestFetchDaily(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "LOCAL-1.csv"), []byte("Date,Value\n2001-06-01,4\n2001-06-03,5\n"), 0o644))

	src := New(dir, zap.NewNop().Sugar())
	series, err := src.FetchDaily(context.Background(), "LOCAL-1")
	require.NoError(t, err)
	assert.Equal(t, "LOCAL-1", series.Station)
	assert.Len(t, series.Observations, 2)
	assert.Nil(t, series.BasinArea)

	for _, station := range []string{"LOCAL-2", "../LOCAL-1", ".hidden", ""} {
		_, err := src.FetchDaily(context.Background(), station)
		assert.True(t, errors.Is(err, source.ErrStationNotFound), "station %q: %v", station, err)
	}
}
