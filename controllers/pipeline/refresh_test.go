package pipeline_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	"github.com/redhatinsights/es-index-lifecycle/controllers/pipeline"
	"github.com/redhatinsights/es-index-lifecycle/test"
)

const newIndex = "app_20240110120000"

var now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

type sliceSource struct {
	documents []elasticsearch.Document
}

func (s *sliceSource) Batches(
	_ context.Context, batchSize int, handle func(batch []elasticsearch.Document) error) error {

	for start := 0; start < len(s.documents); start += batchSize {
		end := start + batchSize
		if end > len(s.documents) {
			end = len(s.documents)
		}
		if err := handle(s.documents[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *sliceSource) Close() error {
	return nil
}

func documents(count int) []elasticsearch.Document {
	var docs []elasticsearch.Document
	for i := 1; i <= count; i++ {
		docs = append(docs, elasticsearch.Document{
			ID:   fmt.Sprintf("%d", i),
			Body: map[string]interface{}{"n": i},
		})
	}
	return docs
}

//bulkResponder answers every document of a bulk request as created, except the ids in rejected
func bulkResponder(rejected ...string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		body, err := ioutil.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}

		var items []map[string]elasticsearch.BulkResponseItem
		scanner := bufio.NewScanner(bytes.NewReader(body))
		line := 0
		for scanner.Scan() {
			line++
			if line%2 == 0 {
				continue
			}
			var action elasticsearch.BulkIndexAction
			if err = json.Unmarshal(scanner.Bytes(), &action); err != nil {
				return nil, err
			}
			item := elasticsearch.BulkResponseItem{ID: action.Index.ID, Result: "created", Status: 201}
			for _, id := range rejected {
				if id == action.Index.ID {
					item = elasticsearch.BulkResponseItem{ID: id, Status: 400,
						Error: &elasticsearch.BulkItemError{Type: "mapper_parsing_exception"}}
				}
			}
			items = append(items, map[string]elasticsearch.BulkResponseItem{"index": item})
		}

		return httpmock.NewJsonResponse(200, elasticsearch.BulkResponse{Errors: len(rejected) > 0, Items: items})
	}
}

//aliasCluster reports app_old behind the alias until an update is applied
type aliasCluster struct {
	mutex   sync.Mutex
	current string
	reads   int

	//readFailsFrom makes that alias read, counting from 1, and every later one answer 500
	readFailsFrom int
	updateStatus  int
	applyUpdate   bool
}

func newAliasCluster() *aliasCluster {
	return &aliasCluster{current: "app_old", updateStatus: 200, applyUpdate: true}
}

func (c *aliasCluster) get(req *http.Request) (*http.Response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.reads++
	if c.readFailsFrom > 0 && c.reads >= c.readFailsFrom {
		return httpmock.NewStringResponse(500, `{}`), nil
	}
	return httpmock.NewStringResponse(200, `{"`+c.current+`":{"aliases":{"app":{}}}}`), nil
}

func (c *aliasCluster) update(req *http.Request) (*http.Response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.applyUpdate {
		c.current = newIndex
	}
	return httpmock.NewStringResponse(c.updateStatus, `{"acknowledged":true}`), nil
}

var _ = Describe("Refresh", func() {
	var manager *index.Manager
	var transport *httpmock.MockTransport
	var options pipeline.Options
	var aliases *aliasCluster

	acknowledged := httpmock.NewStringResponder(200, `{"acknowledged":true}`)

	BeforeEach(func() {
		var es *elasticsearch.ElasticSearch
		es, transport = test.NewMockElasticSearch()
		manager = index.NewManager(es, index.Options{Clock: func() time.Time { return now }})
		options = pipeline.Options{Prefix: "app", BatchSize: 2}

		transport.RegisterResponder("PUT", test.Url("/"+newIndex), acknowledged)
		transport.RegisterResponder("DELETE", test.Url("/"+newIndex), acknowledged)
		transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_forcemerge?max_num_segments=1"),
			httpmock.NewStringResponder(200, `{}`))
		aliases = newAliasCluster()
		transport.RegisterResponder("GET", test.Url("/_alias/app"), aliases.get)
		transport.RegisterResponder("POST", test.Url("/_aliases"), aliases.update)
		transport.RegisterResponder("GET", test.Url("/app%2A/_settings/index.creation_date"),
			httpmock.NewStringResponder(200, fmt.Sprintf(`{
				"app_old":{"settings":{"index":{"creation_date":"1704067200000"}}},
				"%s":{"settings":{"index":{"creation_date":"%d"}}}}`, newIndex, now.UnixNano()/int64(time.Millisecond))))
		transport.RegisterResponder("DELETE", test.Url("/app_old"), acknowledged)
	})

	It("fills a new index, moves the alias and sweeps the old index", func() {
		transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_bulk"), bulkResponder())

		refresher := pipeline.NewRefresher(manager, &sliceSource{documents: documents(3)}, options)
		result, err := refresher.Refresh(context.Background())
		Expect(err).ToNot(HaveOccurred())

		_, err = uuid.Parse(result.RunID)
		Expect(err).ToNot(HaveOccurred())
		expected := pipeline.RefreshResult{RunID: result.RunID, Index: newIndex, Batches: 2, Created: 3}
		Expect(cmp.Diff(expected, result)).To(BeEmpty())

		Expect(test.CallCount(transport, "POST", "/"+newIndex+"/_bulk")).To(Equal(2))
		Expect(test.CallCount(transport, "POST", "/"+newIndex+"/_forcemerge?max_num_segments=1")).To(Equal(1))
		Expect(test.CallCount(transport, "POST", "/_aliases")).To(Equal(1))
		Expect(test.CallCount(transport, "DELETE", "/app_old")).To(Equal(1))
		Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(0))
	})

	It("aborts and deletes the new index when a bulk request fails", func() {
		transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_bulk"), httpmock.NewStringResponder(500, `{}`))

		refresher := pipeline.NewRefresher(manager, &sliceSource{documents: documents(3)}, options)
		_, err := refresher.Refresh(context.Background())

		var abortErr *pipeline.AbortError
		Expect(errors.As(err, &abortErr)).To(BeTrue())
		Expect(abortErr.Index).To(Equal(newIndex))
		Expect(errors.Is(err, index.ErrBulkRequest)).To(BeTrue())
		Expect(test.CallCount(transport, "POST", "/"+newIndex+"/_bulk")).To(Equal(1))
		Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(1))
		Expect(test.CallCount(transport, "POST", "/_aliases")).To(Equal(0))
	})

	It("aborts when too many documents are rejected", func() {
		transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_bulk"), bulkResponder("2"))
		options.MaxErrorRatio = 0.1

		refresher := pipeline.NewRefresher(manager, &sliceSource{documents: documents(4)}, options)
		result, err := refresher.Refresh(context.Background())

		var abortErr *pipeline.AbortError
		Expect(errors.As(err, &abortErr)).To(BeTrue())
		Expect(result.Errored).To(Equal(1))
		Expect(result.Errors).To(Equal([]index.BulkError{{ID: "2", Cause: "mapper_parsing_exception"}}))
		Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(1))
		Expect(test.CallCount(transport, "POST", "/_aliases")).To(Equal(0))
	})

	It("tolerates rejected documents below the ratio", func() {
		transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_bulk"), bulkResponder("2"))
		options.MaxErrorRatio = 0.5

		refresher := pipeline.NewRefresher(manager, &sliceSource{documents: documents(4)}, options)
		result, err := refresher.Refresh(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Created).To(Equal(3))
		Expect(result.ErrorRatio()).To(Equal(0.25))
		Expect(test.CallCount(transport, "POST", "/_aliases")).To(Equal(1))
	})

	It("does not read documents when the index cannot be created", func() {
		transport.RegisterResponder("PUT", test.Url("/"+newIndex), httpmock.NewStringResponder(400, `{}`))
		source := &sliceSource{documents: documents(3)}

		_, err := pipeline.NewRefresher(manager, source, options).Refresh(context.Background())
		Expect(errors.Is(err, index.ErrIndexCreation)).To(BeTrue())
		Expect(test.CallCount(transport, "POST", "/"+newIndex+"/_bulk")).To(Equal(0))
	})

	Context("when the alias cannot be moved", func() {
		BeforeEach(func() {
			transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_bulk"), bulkResponder())
		})

		It("deletes the new index when the alias cannot be read", func() {
			aliases.readFailsFrom = 1

			_, err := pipeline.NewRefresher(manager, &sliceSource{documents: documents(1)}, options).
				Refresh(context.Background())

			var abortErr *pipeline.AbortError
			Expect(errors.As(err, &abortErr)).To(BeTrue())
			Expect(abortErr.Kept).To(BeFalse())
			Expect(errors.Is(err, index.ErrAliasQuery)).To(BeTrue())
			Expect(test.CallCount(transport, "POST", "/_aliases")).To(Equal(0))
			Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(1))
		})

		It("deletes the new index when the update was not applied", func() {
			aliases.updateStatus = 500
			aliases.applyUpdate = false

			_, err := pipeline.NewRefresher(manager, &sliceSource{documents: documents(1)}, options).
				Refresh(context.Background())

			var abortErr *pipeline.AbortError
			Expect(errors.As(err, &abortErr)).To(BeTrue())
			Expect(abortErr.Kept).To(BeFalse())
			Expect(test.CallCount(transport, "GET", "/_alias/app")).To(Equal(3))
			Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(1))
			Expect(test.CallCount(transport, "DELETE", "/app_old")).To(Equal(0))
		})

		It("keeps the new index when the cluster applied the update but timed out", func() {
			aliases.updateStatus = 504

			_, err := pipeline.NewRefresher(manager, &sliceSource{documents: documents(1)}, options).
				Refresh(context.Background())

			var abortErr *pipeline.AbortError
			Expect(errors.As(err, &abortErr)).To(BeTrue())
			Expect(abortErr.Kept).To(BeTrue())
			Expect(aliases.current).To(Equal(newIndex))
			Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(0))
			Expect(test.CallCount(transport, "DELETE", "/app_old")).To(Equal(0))
		})

		It("keeps the new index when the alias cannot be checked after a failed update", func() {
			aliases.updateStatus = 504
			aliases.readFailsFrom = 3

			_, err := pipeline.NewRefresher(manager, &sliceSource{documents: documents(1)}, options).
				Refresh(context.Background())

			var abortErr *pipeline.AbortError
			Expect(errors.As(err, &abortErr)).To(BeTrue())
			Expect(abortErr.Kept).To(BeTrue())
			Expect(test.CallCount(transport, "GET", "/_alias/app")).To(Equal(3))
			Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(0))
		})
	})

	It("returns the result with the error when the sweep fails after the alias moved", func() {
		transport.RegisterResponder("POST", test.Url("/"+newIndex+"/_bulk"), bulkResponder())
		transport.RegisterResponder("GET", test.Url("/app%2A/_settings/index.creation_date"),
			httpmock.NewStringResponder(500, `{}`))

		result, err := pipeline.NewRefresher(manager, &sliceSource{documents: documents(3)}, options).
			Refresh(context.Background())

		Expect(errors.Is(err, index.ErrClusterQuery)).To(BeTrue())
		var abortErr *pipeline.AbortError
		Expect(errors.As(err, &abortErr)).To(BeFalse())
		Expect(result.Index).To(Equal(newIndex))
		Expect(result.Created).To(Equal(3))
		Expect(aliases.current).To(Equal(newIndex))
		Expect(test.CallCount(transport, "DELETE", "/"+newIndex)).To(Equal(0))
	})

	It("requires a prefix", func() {
		options.Prefix = ""
		_, err := pipeline.NewRefresher(manager, &sliceSource{}, options).Refresh(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(transport.GetTotalCallCount()).To(Equal(0))
	})
})
