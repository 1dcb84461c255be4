package pipeline

import (
	"context"
	"fmt"
	"github.com/go-errors/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/redhatinsights/es-index-lifecycle/controllers/database"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	logger "github.com/redhatinsights/es-index-lifecycle/controllers/log"
	"github.com/redhatinsights/es-index-lifecycle/controllers/utils"
)

var log = logger.NewLogger("pipeline")

const (
	DefaultBatchSize = 500

	//at most this many document errors are kept in a RefreshResult
	maxReportedErrors = 50
)

type Options struct {
	//Prefix names the new index and is the alias moved to it
	Prefix       string
	DocumentType string
	Mapping      map[string]interface{}
	Settings     map[string]interface{}
	BatchSize    int

	//MaxErrorRatio is the share of rejected documents, 0 to 1, above which the refresh is aborted
	MaxErrorRatio float64
	Cleanup       index.CleanupOptions
}

type RefreshResult struct {
	RunID   string
	Index   string
	Batches int
	Created int
	Updated int
	Errored int
	Errors  []index.BulkError
}

func (r RefreshResult) Total() int {
	return r.Created + r.Updated + r.Errored
}

func (r RefreshResult) ErrorRatio() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Errored) / float64(r.Total())
}

func (r *RefreshResult) add(outcome index.BulkOutcome) {
	r.Batches++
	r.Created += len(outcome.Created)
	r.Updated += len(outcome.Updated)
	r.Errored += len(outcome.Errors)
	for _, bulkError := range outcome.Errors {
		if len(r.Errors) >= maxReportedErrors {
			break
		}
		r.Errors = append(r.Errors, bulkError)
	}
}

//AbortError is returned when a refresh stopped before the alias was moved. The new index is deleted
//unless Kept is set, which happens when the alias may already point at it.
type AbortError struct {
	Index  string
	Reason string
	Err    error
	Kept   bool
}

func (e *AbortError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("refresh of %s aborted: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("refresh of %s aborted: %s: %v", e.Index, e.Reason, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

//Refresher rebuilds the index behind an alias from a document source
type Refresher struct {
	manager  index.IndexManager
	source   database.DocumentSource
	options  Options
	newRunID func() string
}

func NewRefresher(manager index.IndexManager, source database.DocumentSource, options Options) *Refresher {
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBatchSize
	}
	return &Refresher{
		manager:  manager,
		source:   source,
		options:  options,
		newRunID: uuid.NewString,
	}
}

//Refresh creates a new timestamped index, fills it from the document source, optimizes it, points
//the alias at it and finally sweeps old indices. A failed sweep is returned along with the result,
//the alias has already been moved at that point.
func (r *Refresher) Refresh(ctx context.Context) (result RefreshResult, err error) {
	result.RunID = r.newRunID()
	if r.options.Prefix == "" {
		return result, errors.New("refresh prefix is required")
	}
	if r.options.MaxErrorRatio < 0 || r.options.MaxErrorRatio > 1 {
		return result, errors.Errorf("max error ratio must be between 0 and 1, got %v", r.options.MaxErrorRatio)
	}

	runLog := log.WithValues("runId", result.RunID, "prefix", r.options.Prefix)
	runLog.Info("Starting refresh")

	result.Index, err = r.manager.CreateTimestampedIndex(ctx, r.options.Prefix, r.options.Mapping, r.options.Settings)
	if err != nil {
		return result, err
	}
	runLog = runLog.WithValues("index", result.Index)

	err = r.source.Batches(ctx, r.options.BatchSize, func(batch []elasticsearch.Document) error {
		outcome, err := r.manager.IndexDocumentBulk(ctx, result.Index, r.options.DocumentType, batch)
		if err != nil {
			return err
		}
		result.add(outcome)
		runLog.Debug("Indexed batch", "batch", result.Batches, "documents", outcome.Total())
		return nil
	})
	if err != nil {
		return result, r.abort(result.Index, "unable to index documents", err)
	}

	if result.Errored > 0 && result.ErrorRatio() > r.options.MaxErrorRatio {
		reason := fmt.Sprintf("%d of %d documents were rejected", result.Errored, result.Total())
		return result, r.abort(result.Index, reason, nil)
	}

	r.manager.OptimizeIndex(ctx, result.Index)

	previous, err := r.manager.GetIndicesForAlias(ctx, r.options.Prefix)
	if err != nil {
		return result, r.abort(result.Index, "unable to read alias", err)
	}
	err = r.manager.SetAliasToSingleIndex(ctx, r.options.Prefix, result.Index)
	if err != nil {
		return result, r.abortAliasMove(result.Index, err)
	}
	runLog.Info("Moved alias", "diff", cmp.Diff(previous, []string{result.Index}))

	err = r.manager.CleanupOldIndices(ctx, r.options.Prefix, r.options.Cleanup)
	if err != nil {
		runLog.Error(err, "Refresh finished but the retention sweep failed")
		return result, err
	}

	runLog.Info("Refresh finished",
		"batches", result.Batches, "created", result.Created, "updated", result.Updated, "errored", result.Errored)
	return result, nil
}

func (r *Refresher) abort(name string, reason string, cause error) error {
	abortErr := &AbortError{Index: name, Reason: reason, Err: cause}
	log.Error(abortErr, "Aborting refresh", "index", name)

	//the alias never pointed at the new index, so nothing reads from it
	deleteErr := r.manager.DeleteIndex(context.Background(), name)
	if deleteErr != nil {
		log.Error(deleteErr, "Unable to delete the index of an aborted refresh", "index", name)
	}

	return errors.Wrap(abortErr, 1)
}

//abortAliasMove deletes the new index only when the alias provably does not use it. A failed
//_aliases request may still have been applied by the cluster.
func (r *Refresher) abortAliasMove(name string, cause error) error {
	bound, readErr := r.manager.GetIndicesForAlias(context.Background(), r.options.Prefix)
	if readErr == nil && !utils.ContainsString(bound, name) {
		return r.abort(name, "unable to move alias", cause)
	}

	abortErr := &AbortError{Index: name, Reason: "unable to move alias", Err: cause, Kept: true}
	if readErr != nil {
		log.Error(readErr, "Unable to check the alias, keeping the index of an aborted refresh", "index", name)
	} else {
		log.Warn("Alias points at the index of an aborted refresh, keeping it", "index", name, "aliased", bound)
	}
	return errors.Wrap(abortErr, 1)
}
