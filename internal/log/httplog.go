package log

import (
	"time"

	"go.uber.org/zap"
)

// HTTPLogEntry describes one served HTTP request
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	RequestID  string
	Err        error
}

// LogHTTPRequest writes entry to logger at info level, or error level when the
// request failed with a server error
func LogHTTPRequest(logger *zap.SugaredLogger, entry HTTPLogEntry) {
	fields := []interface{}{
		"method", entry.Method,
		"path", entry.Path,
		"status", entry.Status,
		"duration_ms", entry.Duration.Milliseconds(),
		"size", entry.Size,
		"remote_addr", entry.RemoteAddr,
		"user_agent", entry.UserAgent,
	}
	if entry.RequestID != "" {
		fields = append(fields, "request_id", entry.RequestID)
	}

	if entry.Err != nil {
		fields = append(fields, "error", entry.Err.Error())
	}
	if entry.Status >= 500 {
		logger.Errorw("http request", fields...)
		return
	}
	logger.Infow("http request", fields...)
}
