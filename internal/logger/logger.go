// Package logger provides the application logger used across taskpool.
//
// AppLogger wraps log/slog with the levels silly, verbose, info, warn and error,
// tags every record with an application id, and can be switched between pretty
// (text) and JSON output at runtime. It satisfies pool.Logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Level is the severity of a log record
type Level int

const (
	LevelSilly Level = iota
	LevelVerbose
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSilly:
		return "silly"
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a level name into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silly":
		return LevelSilly, nil
	case "verbose", "debug":
		return LevelVerbose, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// slog has no level below debug, so silly sits four steps under it
const slogLevelSilly = slog.LevelDebug - 4

func (l Level) slog() slog.Level {
	switch l {
	case LevelSilly:
		return slogLevelSilly
	case LevelVerbose:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// AppLogger is a leveled, structured logger bound to an application id
// It is safe for concurrent use
type AppLogger struct {
	mu      sync.RWMutex
	appID   string
	level   Level
	enabled bool
	pretty  bool
	out     io.Writer
	handler *slog.Logger
}

// New creates a logger writing JSON records to out (os.Stderr when nil)
func New(appID string, level Level, out io.Writer) *AppLogger {
	if out == nil {
		out = os.Stderr
	}
	l := &AppLogger{
		appID:   appID,
		level:   level,
		enabled: true,
		out:     out,
	}
	l.rebuild()
	return l
}

// rebuild recreates the slog handler; l.mu must be held for writing or l unshared
func (l *AppLogger) rebuild() {
	opts := &slog.HandlerOptions{
		Level:       l.level.slog(),
		ReplaceAttr: replaceLevel,
	}

	var h slog.Handler
	if l.pretty {
		h = slog.NewTextHandler(l.out, opts)
	} else {
		h = slog.NewJSONHandler(l.out, opts)
	}
	l.handler = slog.New(h).With("app", l.appID)
}

// replaceLevel prints silly and verbose by name instead of DEBUG-4 / DEBUG
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch {
	case level < slog.LevelDebug:
		a.Value = slog.StringValue("SILLY")
	case level == slog.LevelDebug:
		a.Value = slog.StringValue("VERBOSE")
	}
	return a
}

// Enable turns output on or off
func (l *AppLogger) Enable(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// SetAppID changes the application id attached to every record
func (l *AppLogger) SetAppID(appID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appID = appID
	l.rebuild()
}

// AppID returns the application id
func (l *AppLogger) AppID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.appID
}

// SetLevel sets the minimum level that is written
func (l *AppLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.rebuild()
}

// Level returns the minimum level that is written
func (l *AppLogger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// SetPretty switches between human-readable text and JSON records
func (l *AppLogger) SetPretty(pretty bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pretty = pretty
	l.rebuild()
}

// SetOutput redirects records to w
func (l *AppLogger) SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.rebuild()
}

// GenerateRequestID returns a new random request id
func (l *AppLogger) GenerateRequestID() string {
	return uuid.NewString()
}

// Slog returns the underlying slog logger, e.g. for slog.SetDefault
func (l *AppLogger) Slog() *slog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.handler
}

// Log writes a record at level; id, tags and details are optional
func (l *AppLogger) Log(level Level, msg, id string, tags []string, details any) {
	l.mu.RLock()
	enabled, min, h := l.enabled, l.level, l.handler
	l.mu.RUnlock()

	if !enabled || level < min {
		return
	}

	attrs := make([]slog.Attr, 0, 3)
	if id != "" {
		attrs = append(attrs, slog.String("id", id))
	}
	if len(tags) > 0 {
		attrs = append(attrs, slog.Any("tags", tags))
	}
	if details != nil {
		attrs = append(attrs, slog.Any("details", details))
	}

	h.LogAttrs(context.Background(), level.slog(), msg, attrs...)
}

func (l *AppLogger) Silly(msg, id string, tags []string, details any) {
	l.Log(LevelSilly, msg, id, tags, details)
}

func (l *AppLogger) Verbose(msg, id string, tags []string, details any) {
	l.Log(LevelVerbose, msg, id, tags, details)
}

func (l *AppLogger) Info(msg, id string, tags []string, details any) {
	l.Log(LevelInfo, msg, id, tags, details)
}

func (l *AppLogger) Warn(msg, id string, tags []string, details any) {
	l.Log(LevelWarn, msg, id, tags, details)
}

func (l *AppLogger) Error(msg, id string, tags []string, details any) {
	l.Log(LevelError, msg, id, tags, details)
}

// Request returns a logger that stamps every record with requestID
func (l *AppLogger) Request(requestID string) *RequestLogger {
	return &RequestLogger{parent: l, id: requestID}
}

// RequestLogger logs on behalf of a single request
type RequestLogger struct {
	parent *AppLogger
	id     string
}

// ID returns the request id
func (r *RequestLogger) ID() string {
	return r.id
}

func (r *RequestLogger) Silly(msg string, tags []string, details any) {
	r.parent.Log(LevelSilly, msg, r.id, tags, details)
}

func (r *RequestLogger) Verbose(msg string, tags []string, details any) {
	r.parent.Log(LevelVerbose, msg, r.id, tags, details)
}

func (r *RequestLogger) Info(msg string, tags []string, details any) {
	r.parent.Log(LevelInfo, msg, r.id, tags, details)
}

func (r *RequestLogger) Warn(msg string, tags []string, details any) {
	r.parent.Log(LevelWarn, msg, r.id, tags, details)
}

func (r *RequestLogger) Error(msg string, tags []string, details any) {
	r.parent.Log(LevelError, msg, r.id, tags, details)
}
