package core

import "github.com/prometheus/client_golang/prometheus"

const prometheusNamespace = "protocol"

var ErrorsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: prometheusNamespace,
	Name:      "errors_total",
	Help:      "Contract interaction errors by kind",
}, []string{"kind", "operation"})

var CallsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: prometheusNamespace,
	Name:      "calls_total",
	Help:      "Number of interaction operations executed",
}, []string{"operation"})

var MulticallSizeHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: prometheusNamespace,
	Name:      "multicall_size",
	Help:      "Number of calls aggregated per multicall",
	Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
})

var WatchLastBlockGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: prometheusNamespace,
	Name:      "watch_last_block",
	Help:      "Last block scanned by a polling watcher",
}, []string{"address", "event"})

// Collectors returns every collector of this package, for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{ErrorsCounter, CallsCounter, MulticallSizeHistogram, WatchLastBlockGauge}
}

// track counts a transport call and, on failure, the taxonomy kind of err.
// It returns err unchanged.
func track(operation string, err error) error {
	CallsCounter.WithLabelValues(operation).Inc()
	if err != nil {
		ErrorsCounter.WithLabelValues(KindOf(err).String(), operation).Inc()
	}
	return err
}
