package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "pulse_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	reportGenerateTotal   *prometheus.CounterVec
	reportGenerateLatency *prometheus.HistogramVec

	metricQueryFailures *prometheus.CounterVec

	slackDeliveries *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	schedulerRuns *prometheus.CounterVec

	slashCommands *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		reportGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_generate_total",
				Help: "Total report generations by period and result",
			},
			[]string{"period", "result"},
		)
		reportGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_generate_latency_seconds",
				Help:    "Report generation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"period", "result"},
		)

		metricQueryFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "metric_query_failures_total",
				Help: "Total failed metric queries by metric name",
			},
			[]string{"metric"},
		)

		slackDeliveries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "slack_delivery_total",
				Help: "Total Slack deliveries by result",
			},
			[]string{"result"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		schedulerRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scheduler_runs_total",
				Help: "Total scheduled report runs by period",
			},
			[]string{"period"},
		)

		slashCommands = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "slash_commands_total",
				Help: "Total slash command invocations by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			reportGenerateTotal,
			reportGenerateLatency,
			metricQueryFailures,
			slackDeliveries,
			reportExportTotal,
			reportExportLatency,
			schedulerRuns,
			slashCommands,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveReportGenerate records report generation latency and result.
func ObserveReportGenerate(period, result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reportGenerateTotal != nil {
		reportGenerateTotal.WithLabelValues(period, result).Inc()
	}
	if reportGenerateLatency != nil {
		reportGenerateLatency.WithLabelValues(period, result).Observe(duration.Seconds())
	}
}

// IncMetricQueryFailure increments the failed query counter for a metric.
func IncMetricQueryFailure(metric string) {
	if metric == "" {
		metric = "unknown"
	}
	if metricQueryFailures != nil {
		metricQueryFailures.WithLabelValues(metric).Inc()
	}
}

// IncSlackDelivery increments the Slack delivery counter.
func IncSlackDelivery(result string) {
	if result == "" {
		result = resultSuccess
	}
	if slackDeliveries != nil {
		slackDeliveries.WithLabelValues(result).Inc()
	}
}

// ObserveReportExport records export latency by format and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncSchedulerRun increments the scheduled run counter.
func IncSchedulerRun(period string) {
	if period == "" {
		period = "unknown"
	}
	if schedulerRuns != nil {
		schedulerRuns.WithLabelValues(period).Inc()
	}
}

// IncSlashCommand increments the slash command counter.
func IncSlashCommand(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if slashCommands != nil {
		slashCommands.WithLabelValues(outcome).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
