// Package metrics provides Prometheus metrics for the Device Identity
// Subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "devid"

// Validator reconciliation phases, used as the "phase" label on repair
// counters.
const (
	PhaseA = "stable_kind"
	PhaseB = "devname_kind"
	PhaseC = "renamed_pv_search"
)

var (
	devicesScannedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_scanned_total",
			Help:      "Total number of block devices enumerated across all invocations.",
		},
	)

	devicesMatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_matched_total",
			Help:      "Total number of devices successfully bound to a registry entry.",
		},
	)

	devicesExcludedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_excluded_total",
			Help:      "Total number of devices excluded by a filter stage, by stage name.",
		},
		[]string{"stage"},
	)

	multipathComponentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "multipath_components_total",
			Help:      "Total number of devices judged to be multipath components.",
		},
	)

	registryReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_reads_total",
			Help:      "Total number of devices-file reads, by outcome.",
		},
		[]string{"outcome"}, // ok, error
	)

	registryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_writes_total",
			Help:      "Total number of devices-file write attempts, by outcome.",
		},
		[]string{"outcome"}, // ok, deferred, error
	)

	validatorRepairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validator_repairs_total",
			Help:      "Total number of entries modified by the Validator, by phase.",
		},
		[]string{"phase"},
	)

	lockWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting to acquire the registry lock.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"mode"},
	)

	lockContentionTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_contention_total",
			Help:      "Total number of non-blocking lock acquisitions denied due to contention.",
		},
	)
)

// RecordDevicesScanned adds n to the devices-scanned counter.
func RecordDevicesScanned(n int) {
	devicesScannedTotal.Add(float64(n))
}

// RecordDeviceMatched increments the devices-matched counter.
func RecordDeviceMatched() {
	devicesMatchedTotal.Inc()
}

// RecordDeviceExcluded increments the exclusion counter for stage.
func RecordDeviceExcluded(stage string) {
	devicesExcludedTotal.WithLabelValues(stage).Inc()
}

// RecordMultipathComponent increments the multipath-component counter.
func RecordMultipathComponent() {
	multipathComponentsTotal.Inc()
}

// RecordRegistryRead increments the registry-read counter for outcome.
func RecordRegistryRead(outcome string) {
	registryReadsTotal.WithLabelValues(outcome).Inc()
}

// RecordRegistryWrite increments the registry-write counter for outcome.
func RecordRegistryWrite(outcome string) {
	registryWritesTotal.WithLabelValues(outcome).Inc()
}

// RecordValidatorRepair increments the repair counter for phase.
func RecordValidatorRepair(phase string) {
	validatorRepairsTotal.WithLabelValues(phase).Inc()
}

// ObserveLockWait records how long mode acquisition took.
func ObserveLockWait(mode string, seconds float64) {
	lockWaitSeconds.WithLabelValues(mode).Observe(seconds)
}

// RecordLockContention increments the lock-contention counter.
func RecordLockContention() {
	lockContentionTotal.Inc()
}
