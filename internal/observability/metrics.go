package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsSubmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bqrunner_jobs_submitted_total",
			Help: "Total number of query jobs accepted by BigQuery.",
		},
	)
	statusPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bqrunner_job_status_polls_total",
			Help: "Total number of job completion checks.",
		},
	)
	resultPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bqrunner_result_pages_total",
			Help: "Total number of decoded result pages.",
		},
	)
	resultRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bqrunner_result_rows_total",
			Help: "Total number of decoded result rows.",
		},
	)
	emptyPageTerminationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bqrunner_empty_page_terminations_total",
			Help: "Results that ended on an empty page before reaching the reported row count.",
		},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bqrunner_query_duration_seconds",
			Help:    "Wall time of a query from submission to a materialized result.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		jobsSubmittedTotal,
		statusPollsTotal,
		resultPagesTotal,
		resultRowsTotal,
		emptyPageTerminationsTotal,
		queryDurationSeconds,
	)
}

func ObserveJobSubmitted() {
	jobsSubmittedTotal.Inc()
}

func ObserveStatusPoll() {
	statusPollsTotal.Inc()
}

func ObservePage(rows int) {
	resultPagesTotal.Inc()
	if rows > 0 {
		resultRowsTotal.Add(float64(rows))
	}
}

func ObserveEmptyPageTermination() {
	emptyPageTerminationsTotal.Inc()
}

func ObserveQuery(outcome string, elapsed time.Duration) {
	queryDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
