package metrics

import (
	"errors"
	"time"

	"github.com/fxnlabs/fpga/pkg/opae"
	"github.com/fxnlabs/fpga/pkg/opae/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EndpointResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "endpoint_responses_total",
		Help: "The total number of endpoint responses",
	}, []string{"endpoint", "status_code"})

	EndpointDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "endpoint_duration_seconds",
		Help:    "Time spent serving endpoint requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	EndpointResponseBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "endpoint_response_bytes_total",
		Help: "The total number of body bytes written by endpoint",
	}, []string{"endpoint"})

	// Native handle and enumeration metrics
	NativeHandles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "opae_native_handles",
		Help: "Native tokens and property objects currently held",
	}, []string{"kind"})

	Enumerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opae_enumerations_total",
		Help: "The total number of enumerations by driver result",
	}, []string{"result"})

	EnumerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "opae_enumeration_duration_seconds",
		Help:    "Duration of the probe and fetch phases of an enumeration",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
	})

	ResourcesEnumerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opae_resources_enumerated_total",
		Help: "The total number of resources classified by kind",
	}, []string{"kind"})

	ResourcesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opae_resources_dropped_total",
		Help: "The total number of enumerated tokens dropped because their properties could not be read",
	})

	// Inventory metrics
	Resources = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fpga_resources",
		Help: "Resources matching the exporter filter at the last poll",
	}, []string{"kind"})

	AcceleratorAssigned = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fpga_accelerator_assigned",
		Help: "1 if the accelerator is opened by a process, 0 if it is free",
	}, []string{"guid", "segment", "bus", "device", "function"})
)

// Observer records runtime events into the package collectors.
type Observer struct{}

var _ opae.Observer = Observer{}

func (Observer) HandleAcquired(kind opae.HandleKind) {
	NativeHandles.WithLabelValues(kind.String()).Inc()
}

func (Observer) HandleReleased(kind opae.HandleKind) {
	NativeHandles.WithLabelValues(kind.String()).Dec()
}

func (Observer) Enumerated(_, _ int, elapsed time.Duration, err error) {
	Enumerations.WithLabelValues(ResultLabel(err)).Inc()
	EnumerationDuration.Observe(elapsed.Seconds())
}

func (Observer) Classified(kind driver.ObjectType) {
	ResourcesEnumerated.WithLabelValues(kind.String()).Inc()
}

func (Observer) Dropped(error) {
	ResourcesDropped.Inc()
}

// ResultLabel maps an error to the driver result it carries. Errors from
// outside the driver are labeled "error".
func ResultLabel(err error) string {
	if err == nil {
		return driver.OK.String()
	}
	var e *opae.Error
	if errors.As(err, &e) {
		return e.Result.String()
	}
	return "error"
}
