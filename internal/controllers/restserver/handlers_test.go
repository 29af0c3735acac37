package restserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"github.com/chrissnell/flowstats/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalog struct {
	series map[string]*flowstats.StationSeries
	err    error
}

func (s *stubCatalog) FetchDaily(ctx context.Context, station string) (*flowstats.StationSeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	series, ok := s.series[station]
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrStationNotFound, station)
	}
	copied := *series
	return &copied, nil
}

func (s *stubCatalog) Stations() []config.StationData {
	return []config.StationData{{ID: "08MF005", Name: "Fraser River at Hope", Source: "hydat", BasinArea: 217000}}
}

func (s *stubCatalog) Known(station string) bool {
	return station != "NOWHERE"
}

func dailySeries(from, to time.Time, value func(time.Time) float64) []flowstats.Observation {
	var obs []flowstats.Observation
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		obs = append(obs, flowstats.Observation{Date: d, Value: value(d)})
	}
	return obs
}

func newTestController(t *testing.T, catalog StationCatalog) *Controller {
	t.Helper()
	ctrl, err := NewController(context.Background(), &sync.WaitGroup{}, catalog, flowstats.Options{}, config.ServerData{}, zap.NewNop().Sugar())
	require.NoError(t, err)
	return ctrl
}

func serve(ctrl *Controller, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func fraserCatalog() *stubCatalog {
	area := 217000.0
	obs := dailySeries(
		time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2002, time.December, 31, 0, 0, 0, 0, time.UTC),
		func(d time.Time) float64 {
			if d.Year() == 2001 {
				return 10
			}
			return 20
		},
	)
	return &stubCatalog{series: map[string]*flowstats.StationSeries{
		"08MF005": {Station: "08MF005", BasinArea: &area, Observations: obs},
	}}
}

func TestNewControllerDefaults(t *testing.T) {
	ctrl := newTestController(t, fraserCatalog())
	assert.Equal(t, "0.0.0.0:8080", ctrl.Server.Addr)

	_, err := NewController(context.Background(), &sync.WaitGroup{}, fraserCatalog(),
		flowstats.Options{RollDays: -1}, config.ServerData{}, zap.NewNop().Sugar())
	assert.ErrorIs(t, err, flowstats.ErrInvalidParameter)
}

func TestGetStations(t *testing.T) {
	rec := serve(newTestController(t, fraserCatalog()), "/stations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var stations []StationData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stations))
	require.Len(t, stations, 1)
	assert.Equal(t, "08MF005", stations[0].ID)
}

func TestGetDailyStats(t *testing.T) {
	rec := serve(newTestController(t, fraserCatalog()), "/stations/08MF005/daily?percentiles=10,90")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "08MF005", resp.Station)
	assert.Equal(t, "calendar", resp.YearType)
	assert.Equal(t, 2001, resp.StartYear)
	assert.Equal(t, 2002, resp.EndYear)
	assert.Contains(t, resp.Columns, "P90")
	require.Len(t, resp.Data, flowstats.DaysPerYear)

	day100 := resp.Data[99]
	assert.Equal(t, 15.0, day100["Mean"])
	assert.Equal(t, 10.0, day100["Min"])
	assert.Equal(t, 20.0, day100["Max"])
	assert.Equal(t, "Apr-10", day100["Date"])
}

func TestGetCumulativeStatsYield(t *testing.T) {
	rec := serve(newTestController(t, fraserCatalog()), "/stations/08MF005/cumulative?units=yield&exclude=2002")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mm", resp.Units)
	assert.Equal(t, []int{2002}, resp.ExcludedYears)
	require.NotNil(t, resp.BasinArea)
	assert.Equal(t, 217000.0, *resp.BasinArea)

	// 10 m³/s over 217000 km² for one day
	want := 10 * 86400 / (217000.0 * 1000)
	assert.InDelta(t, want, resp.Data[0]["Mean"], 1e-12)
}

func TestGetYearsCSV(t *testing.T) {
	rec := serve(newTestController(t, fraserCatalog()), "/stations/08MF005/years?format=csv&start_year=2002")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, flowstats.DaysPerYear+1)
	assert.Equal(t, "Year,DayOfYear,Date,Value,Cumulative,Incomplete", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2002,1,2002-01-01,20,1728000,false"), lines[1])
}

func TestAnalysisErrors(t *testing.T) {
	tests := []struct {
		name    string
		catalog *stubCatalog
		target  string
		status  int
	}{
		{"unknown station", fraserCatalog(), "/stations/NOWHERE/daily", http.StatusNotFound},
		{"station missing from source", fraserCatalog(), "/stations/05BB001/daily", http.StatusNotFound},
		{"inverted range", fraserCatalog(), "/stations/08MF005/daily?start_year=2005&end_year=2000", http.StatusBadRequest},
		{"bad year type", fraserCatalog(), "/stations/08MF005/daily?year_type=fiscal", http.StatusBadRequest},
		{"malformed integer", fraserCatalog(), "/stations/08MF005/daily?roll_days=seven", http.StatusBadRequest},
		{"percentile out of range", fraserCatalog(), "/stations/08MF005/daily?percentiles=150", http.StatusBadRequest},
		{"zero basin area", fraserCatalog(), "/stations/08MF005/cumulative?units=yield&basin_area=0", http.StatusBadRequest},
		{"unsupported format", fraserCatalog(), "/stations/08MF005/daily?format=yaml", http.StatusBadRequest},
		{"source failure", &stubCatalog{err: errors.New("connection refused")}, "/stations/08MF005/daily", http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestController(t, tt.catalog), tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, rec.Header().Get("X-Request-ID"), body.RequestID)
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	ctrl := newTestController(t, fraserCatalog())
	req := httptest.NewRequest(http.MethodGet, "/stations", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	ctrl := newTestController(t, fraserCatalog())
	serve(ctrl, "/stations/08MF005/daily")
	serve(ctrl, "/stations/NOWHERE/daily")

	rec := serve(ctrl, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `flowstats_analyses_total{outcome="ok"} 1`)
	assert.Contains(t, body, `flowstats_analyses_total{outcome="not_found"} 1`)
	assert.Contains(t, body, `flowstats_http_requests_total{code="404",method="GET",route="/stations/{station}/daily"} 1`)
}
