package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caseintake",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "按实体与操作统计的存储调用次数。",
		},
		[]string{"entity", "operation", "status"},
	)

	intakeSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caseintake",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "表单提交结果统计（saved / partial / invalid / store_error）。",
		},
		[]string{"outcome"},
	)

	intakeDependentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caseintake",
			Subsystem: "intake",
			Name:      "dependent_write_failures_total",
			Help:      "主记录已写入但依赖记录写入失败的次数。",
		},
		[]string{"entity"},
	)
)

// ObserveStoreOperation counts one store call. err == nil is recorded as "ok".
func ObserveStoreOperation(entity, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	storeOperationsTotal.WithLabelValues(entity, operation, status).Inc()
}

// ObserveSubmission counts one intake submission outcome.
func ObserveSubmission(outcome string) {
	intakeSubmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDependentFailure counts a swallowed dependent insert failure.
func ObserveDependentFailure(entity string) {
	intakeDependentFailuresTotal.WithLabelValues(entity).Inc()
}
