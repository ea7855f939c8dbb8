// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all pipeline metrics
type Metrics struct {
	// Frame loop counters
	FramesRead      atomic.Uint64
	FramesProcessed atomic.Uint64
	ReadErrors      atomic.Uint64

	// Plate counters
	PlatesDetected atomic.Uint64
	PlatesRejected atomic.Uint64
	NotifyErrors   atomic.Uint64

	// FPS is the loop rate as float64 bits.
	fps atomic.Uint64

	decisions      *prometheus.CounterVec
	readings       *prometheus.CounterVec
	processLatency prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics instance with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plate_gate_decisions_total",
			Help: "Dedup gate decisions by outcome",
		}, []string{"decision"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plate_gate_readings_total",
			Help: "Plate readings by validation result",
		}, []string{"result"}),
		processLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "plate_gate_frame_process_seconds",
			Help:    "Time to process one frame",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}
	m.register()
	return m
}

func (m *Metrics) register() {
	counters := []struct {
		name, help string
		v          *atomic.Uint64
	}{
		{"plate_gate_frames_read_total", "Total frames read from the source", &m.FramesRead},
		{"plate_gate_frames_processed_total", "Total frames fully processed", &m.FramesProcessed},
		{"plate_gate_read_errors_total", "Total frame acquisition failures", &m.ReadErrors},
		{"plate_gate_plates_detected_total", "Total plate regions above the confidence floor", &m.PlatesDetected},
		{"plate_gate_plates_rejected_total", "Total plate regions below the confidence floor", &m.PlatesRejected},
		{"plate_gate_notify_errors_total", "Total failed external notifications", &m.NotifyErrors},
	}
	for _, c := range counters {
		v := c.v
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(v.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "plate_gate_fps",
			Help: "Current frame loop rate",
		},
		m.FPS,
	))
	m.registry.MustRegister(m.decisions, m.readings, m.processLatency)
}

// ObserveDecision counts one dedup gate decision.
func (m *Metrics) ObserveDecision(decision string) {
	m.decisions.WithLabelValues(decision).Inc()
}

// ObserveReading counts one plate reading by result, such as "ok",
// "empty", "malformed" or "low_confidence".
func (m *Metrics) ObserveReading(result string) {
	m.readings.WithLabelValues(result).Inc()
}

// ObserveProcess records the time spent on one frame.
func (m *Metrics) ObserveProcess(d time.Duration) {
	m.processLatency.Observe(d.Seconds())
}

// SetFPS records the current loop rate.
func (m *Metrics) SetFPS(fps float64) {
	m.fps.Store(math.Float64bits(fps))
}

// FPS returns the last recorded loop rate.
func (m *Metrics) FPS() float64 {
	return math.Float64frombits(m.fps.Load())
}

// Registry returns the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
