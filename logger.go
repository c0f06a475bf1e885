package upscaler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. The host sets it from its plugin-load
// thread while render and present hooks log from others.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for this module and all its sub-packages.
// By default nothing is logged. Pass nil to restore silence.
//
// Log levels:
//   - [slog.LevelDebug]: per-frame routing (present/acquire redirection, dispatch tables)
//   - [slog.LevelInfo]: lifecycle (upscaler initialized, swapchain replaced, provider selected)
//   - [slog.LevelWarn]: recorded failures, fallbacks to the driver swapchain
//
// Example:
//
//	upscaler.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to attached vendor runtimes.
	settersMu.RLock()
	ls := setters
	settersMu.RUnlock()
	for _, s := range ls {
		s.SetLogger(l)
	}
}

// Logger returns the current logger. Sub-packages call it so that a single
// SetLogger configures the whole plugin.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by vendor runtimes that route their own
// diagnostics (NGX, FidelityFX and XeSS message callbacks) to a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

var (
	settersMu sync.RWMutex
	setters   []loggerSetter
)

// AttachLogger hands the current logger to v if v implements
// SetLogger(*slog.Logger), and every logger passed to SetLogger afterwards.
// It reports whether v was attached. The backend Register functions attach
// their runtimes.
func AttachLogger(v any) bool {
	ls, ok := v.(loggerSetter)
	if !ok {
		return false
	}
	settersMu.Lock()
	setters = append(setters[:len(setters):len(setters)], ls)
	settersMu.Unlock()
	ls.SetLogger(Logger())
	return true
}
