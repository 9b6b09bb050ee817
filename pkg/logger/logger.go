package logger

import (
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It is set once by Init during startup;
// packages may use it directly or through the helpers below.
var Log *zap.Logger

// Init initializes the global logger. The level string ("debug", "info",
// "warn", "error") usually comes from config; when empty the
// VENUEDIR_LOG_LEVEL env var is consulted, defaulting to info.
func Init(level string) {
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("VENUEDIR_LOG_LEVEL")))
	}
	var zl zapcore.Level
	switch lvl {
	case "debug":
		zl = zapcore.DebugLevel
	case "warn", "warning":
		zl = zapcore.WarnLevel
	case "error":
		zl = zapcore.ErrorLevel
	default:
		zl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.OutputPaths = []string{"stdout"}
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	Log = l
}

// Sync flushes buffered log entries; call on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// Debug logs at debug level; safe to call before Init.
func Debug(msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	Log.Debug(msg, fields...)
}

// Info logs at info level; safe to call before Init.
func Info(msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	Log.Info(msg, fields...)
}

// Warn logs at warn level; safe to call before Init.
func Warn(msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	Log.Warn(msg, fields...)
}

// Error logs at error level; safe to call before Init.
func Error(msg string, fields ...zap.Field) {
	if Log == nil {
		return
	}
	Log.Error(msg, fields...)
}

var sensitive = map[string]struct{}{
	"authorization": {},
	"x-api-key":     {},
	"cookie":        {},
}

func redactHeaderValue(k, v string) string {
	if v == "" {
		return ""
	}
	if _, ok := sensitive[strings.ToLower(k)]; ok {
		return "<redacted>"
	}
	return v
}

// SafeHeaders returns a compact string representation of headers suitable for
// logging with sensitive values redacted.
func SafeHeaders(r *http.Request) string {
	parts := make([]string, 0, len(r.Header))
	for k, v := range r.Header {
		if len(v) == 0 {
			continue
		}
		parts = append(parts, k+"="+redactHeaderValue(k, v[0]))
	}
	return strings.Join(parts, "; ")
}

// LogRequest logs a concise, safe summary of an incoming request.
func LogRequest(r *http.Request) {
	if Log == nil {
		return
	}
	Log.Info("incoming_request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote", r.RemoteAddr),
		zap.String("headers", SafeHeaders(r)),
	)
}
