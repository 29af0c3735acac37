package main

import (
	"testing"
	"time"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFlows(t *testing.T) {
	day := time.Date(1999, 10, 1, 0, 0, 0, 0, time.UTC)
	flows := dailyFlows("08MF005", []flowstats.Observation{
		{Date: day, Value: 812},
		{Date: day.AddDate(0, 0, 1), Missing: true},
	})

	require.Len(t, flows, 2)
	assert.Equal(t, "08MF005", flows[0].StationID)
	assert.True(t, flows[0].Value.Valid)
	assert.Equal(t, 812.0, flows[0].Value.Float64)
	assert.False(t, flows[1].Value.Valid)
	assert.Equal(t, day.AddDate(0, 0, 1), flows[1].Day)
}
