// Package observability derives scan metrics from the engine's
// message stream. The counters are kind-based: one probe is one
// Advance on the current stream, one discovery is one INFO log record,
// one 404 is one SetMessage. No message text is parsed.
package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/pathstalk/pathstalk/internal/types"
)

// Metrics tracks operational metrics for a scan.
type Metrics struct {
	ProbesTotal    atomic.Int64
	Discoveries    atomic.Int64
	NotFound       atomic.Int64
	PassesStarted  atomic.Int64
	WorkerErrors   atomic.Int64
	WorkerPanics   atomic.Int64
	AnnouncedTotal atomic.Int64

	prints atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// Observe updates counters from one stream message. Call it for every
// message the consumer receives; it never blocks.
func (m *Metrics) Observe(msg types.Message) {
	switch msg := msg.(type) {
	case types.ProgressMessage:
		switch {
		case msg.Stream == types.StreamCurrent && msg.Change.Kind == types.ChangeAdvance:
			m.ProbesTotal.Add(1)
		case msg.Stream == types.StreamCurrent && msg.Change.Kind == types.ChangePrint:
			m.prints.Add(1)
		case msg.Stream == types.StreamCurrent && msg.Change.Kind == types.ChangeSetMessage:
			m.NotFound.Add(1)
		case msg.Stream == types.StreamTotal && msg.Change.Kind == types.ChangeSetSize:
			m.PassesStarted.Add(1)
			m.AnnouncedTotal.Store(int64(msg.Change.Size))
		}
	case types.LogMessage:
		switch msg.Level {
		case types.LevelInfo:
			m.Discoveries.Add(1)
		case types.LevelError:
			m.WorkerErrors.Add(1)
		case types.LevelCritical:
			m.WorkerPanics.Add(1)
		}
	}
}

// TransportErrors is derived: a current-stream Print is either a
// discovery line or a transport error line, and every discovery also
// logs at INFO.
func (m *Metrics) TransportErrors() int64 {
	return m.prints.Load() - m.Discoveries.Load()
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"pathstalk_probes_total", "Total probes issued", m.ProbesTotal.Load()},
		{"pathstalk_discoveries_total", "Total non-404 discoveries", m.Discoveries.Load()},
		{"pathstalk_not_found_total", "Total 404 responses", m.NotFound.Load()},
		{"pathstalk_transport_errors_total", "Total transport-level failures", m.TransportErrors()},
		{"pathstalk_passes_started_total", "Total wordlist passes started", m.PassesStarted.Load()},
		{"pathstalk_worker_errors_total", "Total worker errors", m.WorkerErrors.Load()},
		{"pathstalk_worker_panics_total", "Total recovered worker panics", m.WorkerPanics.Load()},
		{"pathstalk_announced_total_size", "Last announced total progress size", m.AnnouncedTotal.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"probes_total":     m.ProbesTotal.Load(),
		"discoveries":      m.Discoveries.Load(),
		"not_found":        m.NotFound.Load(),
		"transport_errors": m.TransportErrors(),
		"passes_started":   m.PassesStarted.Load(),
		"worker_errors":    m.WorkerErrors.Load(),
		"worker_panics":    m.WorkerPanics.Load(),
		"announced_total":  m.AnnouncedTotal.Load(),
	}
}
