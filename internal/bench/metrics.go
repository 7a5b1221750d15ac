package bench

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	elapsedSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "adjdiff_elapsed_seconds",
		Help: "Elapsed time of the last run by execution path",
	}, []string{"path"})

	throughput = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "adjdiff_throughput_elements_per_second",
		Help: "Elements processed per second in the last run by execution path",
	}, []string{"path"})

	validations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjdiff_validations_total",
		Help: "Total number of validations by result",
	}, []string{"result"})

	mismatchedElements = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "adjdiff_mismatched_elements",
		Help: "Number of elements that differed in the last validation",
	})

	runFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjdiff_run_failures_total",
		Help: "Total number of failed runs by failure category",
	}, []string{"category"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "adjdiff_build_duration_seconds",
		Help:    "Time spent compiling kernel programs",
		Buckets: prometheus.DefBuckets,
	})
)

const (
	pathDevice = "device"
	pathHost   = "host"
)

func observe(r *Result) {
	elapsedSeconds.WithLabelValues(pathDevice).Set(r.DeviceElapsed.Seconds())
	elapsedSeconds.WithLabelValues(pathHost).Set(r.HostElapsed.Seconds())
	if s := r.DeviceElapsed.Seconds(); s > 0 {
		throughput.WithLabelValues(pathDevice).Set(float64(r.Length) / s)
	}
	if s := r.HostElapsed.Seconds(); s > 0 {
		throughput.WithLabelValues(pathHost).Set(float64(r.Length) / s)
	}

	mismatchedElements.Set(float64(r.Mismatch.Count))
	if r.Equal() {
		validations.WithLabelValues("equal").Inc()
	} else {
		validations.WithLabelValues("not_equal").Inc()
	}
}
