package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/flowstats/internal/flowstats"
	"github.com/chrissnell/flowstats/internal/log"
	"github.com/chrissnell/flowstats/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StationCatalog fetches station series and lists the configured stations
type StationCatalog interface {
	flowstats.Fetcher
	Stations() []config.StationData
	Known(station string) bool
}

// Controller represents the REST server controller
type Controller struct {
	ctx          context.Context
	wg           *sync.WaitGroup
	serverConfig config.ServerData
	Server       http.Server
	catalog      StationCatalog
	defaults     flowstats.Options
	assembler    *flowstats.Assembler
	metrics      *metrics
	logger       *zap.SugaredLogger
	handlers     *Handlers
}

// NewController creates a new REST server controller. defaults seed every
// request's analysis options before query parameters are applied.
func NewController(ctx context.Context, wg *sync.WaitGroup, catalog StationCatalog, defaults flowstats.Options, sc config.ServerData, logger *zap.SugaredLogger) (*Controller, error) {
	if catalog == nil {
		return nil, fmt.Errorf("REST server requires a station catalog")
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis defaults: %w", err)
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if sc.ListenAddr == "" {
		logger.Info("server.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		sc.ListenAddr = "0.0.0.0"
	}
	if sc.Port == 0 {
		logger.Info("server.port not provided; defaulting to 8080")
		sc.Port = 8080
	}

	ctrl := &Controller{
		ctx:          ctx,
		wg:           wg,
		serverConfig: sc,
		catalog:      catalog,
		defaults:     defaults,
		assembler:    flowstats.NewAssembler(catalog, logger.Named("assembler")),
		metrics:      newMetrics(),
		logger:       logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.serverConfig.TLSCertPath != "" && c.serverConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.serverConfig.TLSCertPath, c.serverConfig.TLSKeyPath); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				c.logger.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(c.requestMiddleware)

	router.HandleFunc("/stations", c.handlers.GetStations).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/daily", c.handlers.GetDailyStats).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/cumulative", c.handlers.GetCumulativeStats).Methods(http.MethodGet)
	router.HandleFunc("/stations/{station}/years", c.handlers.GetYears).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(c.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return router
}

type requestIDKey struct{}

// statusRecorder captures the status code and body size written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// requestMiddleware tags each request with an id, then logs it and records its metrics
func (c *Controller) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		c.metrics.observeRequest(route, r.Method, rec.status, elapsed)

		log.LogHTTPRequest(c.logger, log.HTTPLogEntry{
			Method:     r.Method,
			Path:       r.URL.RequestURI(),
			Status:     rec.status,
			Duration:   elapsed,
			Size:       rec.size,
			RemoteAddr: r.RemoteAddr,
			UserAgent:  r.UserAgent(),
			RequestID:  requestID,
		})
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
