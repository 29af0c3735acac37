package restserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/source"
	"github.com/chrissnell/flowstats/pkg/responseformat"
	"github.com/gorilla/mux"
)

const (
	outcomeOK          = "ok"
	outcomeBadRequest  = "bad_request"
	outcomeNotFound    = "not_found"
	outcomeFetchFailed = "fetch_failed"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetStations lists the configured stations
func (h *Handlers) GetStations(w http.ResponseWriter, req *http.Request) {
	configured := h.controller.catalog.Stations()
	stations := make([]StationData, 0, len(configured))
	for _, st := range configured {
		stations = append(stations, StationData{
			ID:        st.ID,
			Name:      st.Name,
			Source:    st.Source,
			BasinArea: st.BasinArea,
		})
	}

	if err := h.formatter.WriteResponse(w, req, stations, nil); err != nil {
		h.controller.logger.Errorf("error encoding stations: %v", err)
	}
}

// GetDailyStats returns the day-of-year statistics of daily discharge
func (h *Handlers) GetDailyStats(w http.ResponseWriter, req *http.Request) {
	h.serveAnalysis(w, req, func(res *flowstats.Result) flowstats.Table {
		return flowstats.SummaryTable(res.Station+"_daily_stats", res.Summary)
	})
}

// GetCumulativeStats returns the day-of-year statistics of cumulative totals
func (h *Handlers) GetCumulativeStats(w http.ResponseWriter, req *http.Request) {
	h.serveAnalysis(w, req, func(res *flowstats.Result) flowstats.Table {
		return flowstats.SummaryTable(res.Station+"_cumulative_stats", res.CumulativeSummary)
	})
}

// GetYears returns the aligned daily and cumulative series of every retained year
func (h *Handlers) GetYears(w http.ResponseWriter, req *http.Request) {
	h.serveAnalysis(w, req, func(res *flowstats.Result) flowstats.Table {
		return flowstats.YearsTable(res.Station+"_years", res.Years)
	})
}

// serveAnalysis runs the analysis for the station named in the route and writes
// the table selected by render
func (h *Handlers) serveAnalysis(w http.ResponseWriter, req *http.Request, render func(*flowstats.Result) flowstats.Table) {
	station := mux.Vars(req)["station"]
	metrics := h.controller.metrics

	if !h.controller.catalog.Known(station) {
		metrics.observeAnalysis(outcomeNotFound, 0)
		h.writeError(w, req, http.StatusNotFound, "unknown station "+station)
		return
	}

	if _, err := responseformat.RequestedFormat(req); err != nil {
		metrics.observeAnalysis(outcomeBadRequest, 0)
		h.writeError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := optionsFromQuery(req.URL.Query(), h.controller.defaults)
	if err != nil {
		metrics.observeAnalysis(outcomeBadRequest, 0)
		h.writeError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.controller.assembler.Run(req.Context(), flowstats.Request{
		Input:   flowstats.Input{Station: station},
		Options: opts,
	})
	if err != nil {
		status, outcome := statusForError(err)
		metrics.observeAnalysis(outcome, 0)
		if status >= http.StatusInternalServerError {
			h.controller.logger.Errorw("analysis failed", "station", station, "request_id", requestIDFrom(req.Context()), "error", err)
		}
		h.writeError(w, req, status, err.Error())
		return
	}
	metrics.observeAnalysis(outcomeOK, len(res.Years))

	table := responseformat.Table(render(res))
	envelope := func(records []map[string]any) any {
		diags := res.Diagnostics
		if diags == nil {
			diags = []flowstats.Diagnostic{}
		}
		return AnalysisResponse{
			Station:       res.Station,
			YearType:      res.YearType.String(),
			StartMonth:    int(res.StartMonth),
			StartYear:     res.Window.StartYear,
			EndYear:       res.Window.EndYear,
			ExcludedYears: res.Window.ExcludeYears,
			Units:         res.Units.Label(),
			BasinArea:     res.BasinArea,
			Columns:       table.Columns,
			Data:          records,
			Diagnostics:   diags,
		}
	}

	if err := h.formatter.WriteTable(w, req, table, envelope); err != nil {
		h.controller.logger.Errorf("error encoding %s for station %s: %v", table.Name, station, err)
	}
}

// statusForError maps an analysis error to an HTTP status and a metrics outcome
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, flowstats.ErrInvalidInput),
		errors.Is(err, flowstats.ErrInvalidParameter),
		errors.Is(err, flowstats.ErrInvalidRange),
		errors.Is(err, flowstats.ErrMissingParameter),
		errors.Is(err, flowstats.ErrConflictingInput):
		return http.StatusBadRequest, outcomeBadRequest
	case errors.Is(err, source.ErrStationNotFound):
		return http.StatusNotFound, outcomeNotFound
	default:
		return http.StatusBadGateway, outcomeFetchFailed
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:     msg,
		RequestID: requestIDFrom(req.Context()),
	})
}
