package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out of the access log middleware
const RequestIDHeader = "X-Request-Id"

// UserIDFunc extracts the user id of a request for the access log
type UserIDFunc func(r *http.Request) string

// AccessLogger writes one record per HTTP request
// It is safe for concurrent use
type AccessLogger struct {
	mu      sync.RWMutex
	appID   string
	enabled bool
	pretty  bool
	out     io.Writer
	userID  UserIDFunc
	handler *slog.Logger
}

// NewAccessLogger creates an access logger writing JSON records to out (os.Stderr when nil)
func NewAccessLogger(appID string, out io.Writer) *AccessLogger {
	if out == nil {
		out = os.Stderr
	}
	a := &AccessLogger{
		appID:   appID,
		enabled: true,
		out:     out,
	}
	a.rebuild()
	return a
}

// Access returns an access logger sharing l's app id, output and format
func (l *AppLogger) Access() *AccessLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a := NewAccessLogger(l.appID, l.out)
	a.enabled = l.enabled
	a.pretty = l.pretty
	a.rebuild()
	return a
}

func (a *AccessLogger) rebuild() {
	var h slog.Handler
	if a.pretty {
		h = slog.NewTextHandler(a.out, nil)
	} else {
		h = slog.NewJSONHandler(a.out, nil)
	}
	a.handler = slog.New(h).With("app", a.appID)
}

// Enable turns output on or off
func (a *AccessLogger) Enable(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// SetPretty switches between text (true) and JSON (false) records
func (a *AccessLogger) SetPretty(pretty bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pretty = pretty
	a.rebuild()
}

// SetOutput redirects records to w
func (a *AccessLogger) SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.out = w
	a.rebuild()
}

// SetAppID changes the app attribute of every record
func (a *AccessLogger) SetAppID(appID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.appID = appID
	a.rebuild()
}

// SetUserIDFunc sets the callback naming the user of a request; nil clears it
func (a *AccessLogger) SetUserIDFunc(fn UserIDFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID = fn
}

// Middleware logs every request served by next
// The request id is taken from RequestIDHeader or generated, and echoed in the response
func (a *AccessLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		a.logRequest(r, rec, requestID, time.Since(start))
	})
}

func (a *AccessLogger) logRequest(r *http.Request, rec *statusRecorder, requestID string, d time.Duration) {
	a.mu.RLock()
	enabled, h, userID := a.enabled, a.handler, a.userID
	a.mu.RUnlock()

	if !enabled {
		return
	}

	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Int("bytes", rec.bytes),
		slog.Duration("duration", d),
		slog.String("remote", r.RemoteAddr),
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String("user_agent", ua))
	}
	if userID != nil {
		if user := userID(r); user != "" {
			attrs = append(attrs, slog.String("user", user))
		}
	}

	h.LogAttrs(context.Background(), slog.LevelInfo, "request", attrs...)
}

// statusRecorder captures the status code and body size of a response
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
