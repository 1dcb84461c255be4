package index

import (
	"context"
	"github.com/go-errors/errors"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/metrics"
	"net/http"
)

//CreateIndex creates name with a body built by merging settings and mapping, e.g.
//{"settings": {...}} and {"mappings": {...}}. Keys of mapping win on conflict.
func (m *Manager) CreateIndex(
	ctx context.Context, name string, mapping map[string]interface{}, settings map[string]interface{}) error {

	if name == "" {
		return invalidArgument("index name is required")
	}

	body := make(map[string]interface{}, len(settings)+len(mapping))
	for k, v := range settings {
		body[k] = v
	}
	for k, v := range mapping {
		body[k] = v
	}

	err := m.client.CreateIndex(ctx, name, body)
	metrics.IndexOperation(metrics.OPERATION_CREATE, err)
	if err != nil {
		log.Error(err, "Unable to create index", "index", name)
		return operationError(ErrIndexCreation, "create index", name, err)
	}

	log.Info("Created index", "index", name)
	return nil
}

func (m *Manager) CreateTimestampedIndex(
	ctx context.Context, prefix string, mapping map[string]interface{}, settings map[string]interface{}) (string, error) {

	if prefix == "" {
		return "", invalidArgument("index prefix is required")
	}

	name := m.TimestampedName(prefix)
	err := m.CreateIndex(ctx, name, mapping, settings)
	if err != nil {
		return "", err
	}
	return name, nil
}

//OptimizeIndex force merges name down to one segment. It is best effort: a merge still running when
//the deadline expires keeps running on the cluster, and failures are only logged.
func (m *Manager) OptimizeIndex(ctx context.Context, name string) {
	if name == "" {
		log.Warn("Skipping optimize, index name is empty")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.mergeTimeout)
	defer cancel()

	err := m.client.ForceMerge(ctx, name, 1)
	if err != nil && mergeStillRunning(ctx, err) {
		metrics.IndexOperation(metrics.OPERATION_OPTIMIZE, nil)
		log.Info("Force merge did not finish before the deadline, it continues on the cluster",
			"index", name, "timeout", m.mergeTimeout.String())
		return
	}

	metrics.IndexOperation(metrics.OPERATION_OPTIMIZE, err)
	if err != nil {
		log.Error(err, "Unable to optimize index", "index", name)
		return
	}

	log.Info("Optimized index", "index", name)
}

func mergeStillRunning(ctx context.Context, err error) bool {
	return elasticsearch.StatusCode(err) == http.StatusGatewayTimeout ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (m *Manager) DeleteIndex(ctx context.Context, name string) error {
	if name == "" {
		return invalidArgument("index name is required")
	}

	err := m.client.DeleteIndex(ctx, name)
	metrics.IndexOperation(metrics.OPERATION_DELETE, err)
	if err != nil {
		log.Error(err, "Unable to delete index", "index", name)
		return operationError(ErrIndexDeletion, "delete index", name, err)
	}

	log.Info("Deleted index", "index", name)
	return nil
}
