package index

import (
	"context"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	logger "github.com/redhatinsights/es-index-lifecycle/controllers/log"
	"time"
)

var log = logger.NewLogger("index")

const (
	DefaultMergeTimeout = 120 * time.Second
	DefaultBulkTimeout  = 60 * time.Second
)

//ClusterClient is the subset of the search cluster API the manager needs.
//Reads that match nothing must fail with an *elasticsearch.ResponseError carrying status 404.
type ClusterClient interface {
	CreateIndex(ctx context.Context, name string, body map[string]interface{}) error
	DeleteIndex(ctx context.Context, name string) error
	ForceMerge(ctx context.Context, name string, maxSegments int) error
	GetCreationDates(ctx context.Context, pattern string) (map[string]int64, error)
	GetAlias(ctx context.Context, name string) (map[string][]string, error)
	UpdateAliases(ctx context.Context, actions []elasticsearch.AliasAction) error
	Bulk(ctx context.Context, index string, docType string, documents []elasticsearch.Document) (*elasticsearch.BulkResponse, error)
	IndexDocument(ctx context.Context, index string, docType string, id string, document interface{}) error
}

//IndexManager creates, aliases, sweeps and fills timestamped indices
type IndexManager interface {
	TimestampedName(prefix string) string
	CreateIndex(ctx context.Context, name string, mapping map[string]interface{}, settings map[string]interface{}) error
	CreateTimestampedIndex(ctx context.Context, prefix string, mapping map[string]interface{}, settings map[string]interface{}) (string, error)
	OptimizeIndex(ctx context.Context, name string)
	DeleteIndex(ctx context.Context, name string) error
	GetIndicesForAlias(ctx context.Context, alias string) ([]string, error)
	UpdateAlias(ctx context.Context, alias string, update AliasUpdate) error
	SetAliasToSingleIndex(ctx context.Context, alias string, target string) error
	GetIndicesOlderThan(ctx context.Context, prefix string, cutoffMillis int64) ([]string, error)
	CleanupOldIndices(ctx context.Context, prefix string, opts CleanupOptions) error
	IndexDocument(ctx context.Context, index string, docType string, id string, document interface{}) error
	IndexDocumentBulk(ctx context.Context, index string, docType string, documents []Document) (BulkOutcome, error)
}

type Options struct {
	//MergeTimeout bounds OptimizeIndex, defaults to DefaultMergeTimeout
	MergeTimeout time.Duration
	//BulkTimeout bounds IndexDocumentBulk, defaults to DefaultBulkTimeout
	BulkTimeout time.Duration
	//Clock defaults to time.Now
	Clock func() time.Time
}

type Manager struct {
	client       ClusterClient
	now          func() time.Time
	mergeTimeout time.Duration
	bulkTimeout  time.Duration
}

var _ IndexManager = &Manager{}

func NewManager(client ClusterClient, opts Options) *Manager {
	m := &Manager{
		client:       client,
		now:          opts.Clock,
		mergeTimeout: opts.MergeTimeout,
		bulkTimeout:  opts.BulkTimeout,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.mergeTimeout <= 0 {
		m.mergeTimeout = DefaultMergeTimeout
	}
	if m.bulkTimeout <= 0 {
		m.bulkTimeout = DefaultBulkTimeout
	}
	return m
}
