package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReportsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_sent_total",
			Help: "Total daily reports delivered",
		},
	)

	ReportFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "report_failures_total",
			Help: "Total report runs that ended in failure",
		},
	)

	ReportsNoContent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_no_content_total",
			Help: "Total report runs skipped for lack of dated content",
		},
	)

	TransformFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transform_failures_total",
			Help: "Total tolerated transform-service failures",
		},
	)
)

func Init() {
	prometheus.MustRegister(ReportsSent)
	prometheus.MustRegister(ReportFailures)
	prometheus.MustRegister(ReportsNoContent)
	prometheus.MustRegister(TransformFailures)
}
