package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ScanCycles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinhawk_scan_cycles_total",
		Help: "Completed full scan cycles",
	})

	PairEvaluations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinhawk_pair_evaluations_total",
		Help: "Exchange-pair combinations evaluated",
	})

	OpportunitiesFound = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinhawk_opportunities_total",
		Help: "Net-positive opportunities returned by scans",
	})

	AlertsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinhawk_alerts_sent_total",
		Help: "Alerts dispatched for confirmed opportunities",
	})

	BookRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coinhawk_book_rejections_total",
		Help: "Opportunities rejected by order-book verification",
	})

	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coinhawk_scan_duration_seconds",
		Help:    "Duration of a full scan cycle",
		Buckets: prometheus.DefBuckets,
	})

	HotListSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "coinhawk_hotlist_size",
		Help: "Symbols currently on the hot list",
	})
)

func init() {
	prometheus.MustRegister(
		ScanCycles,
		PairEvaluations,
		OpportunitiesFound,
		AlertsSent,
		BookRejections,
		ScanDuration,
		HotListSize,
	)
}
