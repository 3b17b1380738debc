package graphics

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for graphics and all its sub-packages.
// By default, graphics produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by graphics:
//   - [slog.LevelDebug]: internal diagnostics (view creation, block layouts)
//   - [slog.LevelInfo]: important lifecycle events (driver opened, device rebuilt)
//   - [slog.LevelWarn]: non-fatal issues (parameter size mismatch, release errors)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	graphics.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	graphics.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to live devices whose drivers accept a logger.
	devicesMu.RLock()
	for d := range liveDevices {
		propagateLogger(d, l)
	}
	devicesMu.RUnlock()
}

// Logger returns the current logger used by graphics.
// Sub-packages (backend/soft, backend/wgpu, ddsfile) call this to share the
// same logger configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by drivers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device's driver if it implements
// the loggerSetter interface. Called from both SetLogger and NewDevice so
// the driver always has the current logger.
func propagateLogger(d *Device, l *slog.Logger) {
	if ls, ok := d.driver.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
