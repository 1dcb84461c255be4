package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"time"
)

var (
	indexOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eslm_index_operations_total",
		Help: "Number of index create, delete and optimize calls by result",
	}, []string{"operation", "result"})

	aliasSwaps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eslm_alias_swaps_total",
		Help: "Number of times an alias was pointed at a single index",
	}, []string{"alias", "result"})

	bulkDocuments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eslm_bulk_documents_total",
		Help: "Number of documents sent through bulk requests by outcome",
	}, []string{"index", "outcome"})

	sweepDeletedIndices = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eslm_sweep_deleted_indices_total",
		Help: "Number of indices deleted by the retention sweeper",
	}, []string{"prefix"})

	sweepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "eslm_sweep_duration_seconds",
		Help:    "Duration of retention sweeps",
		Buckets: prometheus.DefBuckets,
	}, []string{"prefix", "result"})

	lastSweepTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "eslm_sweep_last_success_timestamp_seconds",
		Help: "Unix time of the last successful retention sweep",
	}, []string{"prefix"})
)

type Operation string

const (
	OPERATION_CREATE   Operation = "create"
	OPERATION_DELETE   Operation = "delete"
	OPERATION_OPTIMIZE Operation = "optimize"
)

type Outcome string

const (
	OUTCOME_CREATED Outcome = "created"
	OUTCOME_UPDATED Outcome = "updated"
	OUTCOME_ERRORED Outcome = "errored"
)

func Init(registerer prometheus.Registerer) {
	registerer.MustRegister(indexOperations, aliasSwaps, bulkDocuments, sweepDeletedIndices, sweepDuration, lastSweepTimestamp)
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func IndexOperation(operation Operation, err error) {
	indexOperations.WithLabelValues(string(operation), result(err)).Inc()
}

func AliasSwapped(alias string, err error) {
	aliasSwaps.WithLabelValues(alias, result(err)).Inc()
}

func BulkDocuments(index string, outcome Outcome, count int) {
	bulkDocuments.WithLabelValues(index, string(outcome)).Add(float64(count))
}

func SweepFinished(prefix string, start time.Time, deleted int, err error) {
	sweepDuration.WithLabelValues(prefix, result(err)).Observe(time.Since(start).Seconds())
	sweepDeletedIndices.WithLabelValues(prefix).Add(float64(deleted))
	if err == nil {
		lastSweepTimestamp.WithLabelValues(prefix).SetToCurrentTime()
	}
}
