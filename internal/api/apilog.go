package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RequestLogEntry is a single structured record written to the request log.
// Fields use snake_case JSON keys for easy grep/jq consumption.
type RequestLogEntry struct {
	Timestamp     string `json:"ts"`
	Event         string `json:"event"`                     // "request" or "rate_limit_wait"
	Label         string `json:"label,omitempty"`           // endpoint name
	StatusCode    int    `json:"status_code,omitempty"`     // HTTP status (0 = network error)
	DurationMS    int64  `json:"duration_ms,omitempty"`     // round-trip time
	RateLimitedMS int64  `json:"rate_limited_ms,omitempty"` // ms spent waiting for the limiter
	Error         string `json:"error,omitempty"`
}

// requestLogger writes structured JSON-line entries to a dedicated log file.
type requestLogger struct {
	mu  sync.Mutex
	enc *json.Encoder
	f   *os.File
}

// Logger is the package-level request logger. It is nil until InitRequestLog
// is called; all log functions are no-ops while it is nil.
var Logger *requestLogger

var loggerOnce sync.Once

// InitRequestLog opens (or creates) the request log file at logPath. Call it
// once at startup. A non-nil error means the file could not be opened; in
// that case logging stays disabled and everything else continues normally.
func InitRequestLog(logPath string) error {
	var initErr error
	loggerOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
			initErr = fmt.Errorf("request log: mkdir %s: %w", filepath.Dir(logPath), err)
			return
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			initErr = fmt.Errorf("request log: open %s: %w", logPath, err)
			return
		}
		Logger = &requestLogger{f: f, enc: json.NewEncoder(f)}
	})
	return initErr
}

// write appends one entry. Failures are ignored — a logging error must never
// abort an index run.
func (l *requestLogger) write(e RequestLogEntry) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(e)
}

// LogRequest records a completed HTTP request.
func LogRequest(label string, statusCode int, duration time.Duration, reqErr error) {
	if Logger == nil {
		return
	}
	e := RequestLogEntry{
		Event:      "request",
		Label:      label,
		StatusCode: statusCode,
		DurationMS: duration.Milliseconds(),
	}
	if reqErr != nil {
		e.Error = reqErr.Error()
	}
	Logger.write(e)
}

// LogRateLimitWait records that a request was delayed by the rate limiter.
func LogRateLimitWait(label string, waited time.Duration) {
	if Logger == nil {
		return
	}
	Logger.write(RequestLogEntry{
		Event:         "rate_limit_wait",
		Label:         label,
		RateLimitedMS: waited.Milliseconds(),
	})
}
