package device

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transferBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjdiff_device_transfer_bytes_total",
		Help: "Total bytes moved between host and device",
	}, []string{"backend", "direction"})

	kernelDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjdiff_device_kernel_dispatches_total",
		Help: "Total number of kernel dispatches",
	}, []string{"backend", "kernel"})

	programBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adjdiff_device_program_builds_total",
		Help: "Total number of program builds by outcome",
	}, []string{"backend", "outcome"})

	allocatedBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "adjdiff_device_allocated_bytes",
		Help: "Bytes currently allocated in device buffers",
	}, []string{"backend"})
)

const (
	directionToDevice = "host_to_device"
	directionToHost   = "device_to_host"
)

func recordBuild(backend string, err error) {
	if err != nil {
		programBuilds.WithLabelValues(backend, "failure").Inc()
		return
	}
	programBuilds.WithLabelValues(backend, "success").Inc()
}
