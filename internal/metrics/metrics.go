package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal tracks completed reconcile runs by outcome.
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_runs_total",
		Help: "Total number of reconcile runs by status",
	}, []string{"status", "source"})

	// runDuration tracks end-to-end reconcile run time.
	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcile_run_duration_seconds",
		Help:    "Time taken for a full reconcile run",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// rowsProcessed tracks extracted rows by disposition.
	rowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_rows_total",
		Help: "Total extracted rows by disposition",
	}, []string{"disposition"}) // disposition: valid, rejected

	// entriesMerged tracks catalog entries touched per merge outcome.
	entriesMerged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_entries_total",
		Help: "Total catalog entries by merge outcome",
	}, []string{"outcome"}) // outcome: updated, created, missing

	// catalogSize reports the current catalog entry count.
	catalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_entries",
		Help: "Number of entries in the catalog after the last run",
	})

	// catalogRequests tracks storefront catalog reads by cache outcome.
	catalogRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_requests_total",
		Help: "Total catalog requests by cache outcome",
	}, []string{"outcome"}) // outcome: hit, miss

	// workbookUploads tracks supplier file uploads by outcome.
	workbookUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "workbook_uploads_total",
		Help: "Total workbook uploads by outcome",
	}, []string{"outcome"}) // outcome: accepted, rejected
)

// ObserveRun records one finished run.
func ObserveRun(status, source string, duration time.Duration) {
	runsTotal.WithLabelValues(status, source).Inc()
	runDuration.Observe(duration.Seconds())
}

// ObserveRows records extraction dispositions for one run.
func ObserveRows(valid, rejected int) {
	rowsProcessed.WithLabelValues("valid").Add(float64(valid))
	rowsProcessed.WithLabelValues("rejected").Add(float64(rejected))
}

// ObserveMerge records merge outcomes and the resulting catalog size.
func ObserveMerge(updated, created, missing, total int) {
	entriesMerged.WithLabelValues("updated").Add(float64(updated))
	entriesMerged.WithLabelValues("created").Add(float64(created))
	entriesMerged.WithLabelValues("missing").Add(float64(missing))
	catalogSize.Set(float64(total))
}

// ObserveCatalogRequest records a storefront catalog read.
func ObserveCatalogRequest(cached bool) {
	if cached {
		catalogRequests.WithLabelValues("hit").Inc()
		return
	}
	catalogRequests.WithLabelValues("miss").Inc()
}

// ObserveUpload records a workbook upload.
func ObserveUpload(accepted bool) {
	if accepted {
		workbookUploads.WithLabelValues("accepted").Inc()
		return
	}
	workbookUploads.WithLabelValues("rejected").Inc()
}
