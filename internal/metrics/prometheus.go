package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the counters of one process. It owns a private registry so
// several recorders never collide.
type Recorder struct {
	registry *prometheus.Registry

	solves   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	modes    *prometheus.GaugeVec
	summary  *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aeromodal_solves_total",
				Help: "Total number of solver runs",
			},
			[]string{"solver", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aeromodal_solve_duration_seconds",
				Help:    "Time taken by a solver run",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
			},
			[]string{"solver"},
		),
		modes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aeromodal_modes_retained",
				Help: "Number of modes kept by the last run",
			},
			[]string{"solver"},
		),
		summary: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "aeromodal_spectrum",
				Help: "Eigenvalue summaries of the last run",
			},
			[]string{"solver", "quantity"},
		),
	}
	r.registry.MustRegister(r.solves, r.duration, r.modes, r.summary)
	return r
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveSolve records the outcome of a solver run.
func (r *Recorder) ObserveSolve(solver string, elapsed time.Duration, modes int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.solves.WithLabelValues(solver, status).Inc()
	r.duration.WithLabelValues(solver).Observe(elapsed.Seconds())
	if err == nil {
		r.modes.WithLabelValues(solver).Set(float64(modes))
	}
}

// ObserveSpectrum stores the default summaries of values and returns them.
func (r *Recorder) ObserveSpectrum(solver string, values []complex128) map[string]float64 {
	s := Summarise(values, DefaultObservers()...)
	for name, v := range s {
		r.summary.WithLabelValues(solver, name).Set(v)
	}
	return s
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
