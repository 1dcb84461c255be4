package index

import (
	"context"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/metrics"
	"net/http"
)

type Document = elasticsearch.Document

type BulkError struct {
	ID    string
	Cause string
}

//BulkOutcome classifies every item of a bulk response into exactly one bucket
type BulkOutcome struct {
	Created []string
	Updated []string
	Errors  []BulkError
}

func (o BulkOutcome) Total() int {
	return len(o.Created) + len(o.Updated) + len(o.Errors)
}

func newBulkOutcome() BulkOutcome {
	return BulkOutcome{
		Created: []string{},
		Updated: []string{},
		Errors:  []BulkError{},
	}
}

func (m *Manager) IndexDocument(
	ctx context.Context, index string, docType string, id string, document interface{}) error {

	if index == "" {
		return invalidArgument("index name is required")
	}

	err := m.client.IndexDocument(ctx, index, docType, id, document)
	if err != nil {
		log.Error(err, "Unable to index document", "index", index, "id", id)
		return operationError(ErrDocumentIndex, "index document", index+"/"+id, err)
	}
	return nil
}

//IndexDocumentBulk writes documents in one request. Documents the cluster rejects are reported in
//the outcome, an error is only returned when the request as a whole failed.
func (m *Manager) IndexDocumentBulk(
	ctx context.Context, index string, docType string, documents []Document) (BulkOutcome, error) {

	outcome := newBulkOutcome()
	if index == "" {
		return outcome, invalidArgument("index name is required")
	}
	if len(documents) == 0 {
		return outcome, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.bulkTimeout)
	defer cancel()

	res, err := m.client.Bulk(ctx, index, docType, documents)
	if err != nil {
		log.Error(err, "Bulk request failed", "index", index, "documents", len(documents))
		return outcome, operationError(ErrBulkRequest, "bulk index", index, err)
	}

	for _, item := range res.Items {
		for _, result := range item {
			if result.Error != nil {
				outcome.Errors = append(outcome.Errors, BulkError{ID: result.ID, Cause: result.Error.String()})
			} else if result.Result == "created" || result.Status == http.StatusCreated {
				outcome.Created = append(outcome.Created, result.ID)
			} else {
				outcome.Updated = append(outcome.Updated, result.ID)
			}
		}
	}

	metrics.BulkDocuments(index, metrics.OUTCOME_CREATED, len(outcome.Created))
	metrics.BulkDocuments(index, metrics.OUTCOME_UPDATED, len(outcome.Updated))
	metrics.BulkDocuments(index, metrics.OUTCOME_ERRORED, len(outcome.Errors))

	if len(outcome.Errors) > 0 {
		log.Warn("Bulk request rejected some documents",
			"index", index, "errors", len(outcome.Errors), "first", outcome.Errors[0])
	} else {
		log.Debug("Bulk request finished", "index", index,
			"created", len(outcome.Created), "updated", len(outcome.Updated))
	}

	return outcome, nil
}
