package index_test

import (
	"context"
	"strings"

	"github.com/go-errors/errors"
	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	"github.com/redhatinsights/es-index-lifecycle/test"
)

var _ = Describe("Bulk ingestion", func() {
	var manager *index.Manager
	var transport *httpmock.MockTransport
	var ctx context.Context

	BeforeEach(func() {
		manager, transport = newManager(index.Options{})
		ctx = context.Background()
	})

	Context("IndexDocument", func() {
		It("puts the document under its id", func() {
			recorder := &test.RequestRecorder{}
			transport.RegisterResponder("PUT", test.Url("/hosts/_doc/1"),
				recorder.Responder(201, `{"_id":"1","result":"created"}`))

			err := manager.IndexDocument(ctx, "hosts", "", "1", map[string]interface{}{"name": "a"})
			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.Bodies()).To(HaveLen(1))
			Expect(recorder.Bodies()[0]).To(MatchJSON(`{"name":"a"}`))
		})

		It("returns a document index error on failure", func() {
			transport.RegisterResponder("PUT", test.Url("/hosts/_doc/1"), httpmock.NewStringResponder(400,
				`{"error":{"type":"mapper_parsing_exception"}}`))

			err := manager.IndexDocument(ctx, "hosts", "", "1", map[string]interface{}{"name": "a"})
			Expect(errors.Is(err, index.ErrDocumentIndex)).To(BeTrue())
			Expect(errors.Is(err, index.ErrClusterWrite)).To(BeTrue())
		})
	})

	Context("IndexDocumentBulk", func() {
		documents := []index.Document{
			{ID: "1", Body: map[string]interface{}{"name": "one"}},
			{ID: "2", Body: map[string]interface{}{"name": "two"}},
			{ID: "3", Body: map[string]interface{}{"name": "three"}},
			{ID: "4", Body: map[string]interface{}{"name": "four"}},
		}

		It("sends an action line and a source line per document in order", func() {
			recorder := &test.RequestRecorder{}
			transport.RegisterResponder("POST", test.Url("/hosts/_bulk"), recorder.Responder(200,
				`{"took":1,"errors":false,"items":[]}`))

			_, err := manager.IndexDocumentBulk(ctx, "hosts", "", documents[:2])
			Expect(err).ToNot(HaveOccurred())
			Expect(recorder.Bodies()).To(HaveLen(1))

			lines := strings.Split(strings.TrimSuffix(recorder.Bodies()[0], "\n"), "\n")
			Expect(lines).To(HaveLen(4))
			Expect(lines[0]).To(MatchJSON(`{"index":{"_id":"1"}}`))
			Expect(lines[1]).To(MatchJSON(`{"name":"one"}`))
			Expect(lines[2]).To(MatchJSON(`{"index":{"_id":"2"}}`))
			Expect(lines[3]).To(MatchJSON(`{"name":"two"}`))
		})

		It("puts every item in exactly one bucket", func() {
			transport.RegisterResponder("POST", test.Url("/hosts/_bulk"), httpmock.NewStringResponder(200, `{
				"took": 3,
				"errors": true,
				"items": [
					{"index": {"_index": "hosts", "_id": "1", "result": "created", "status": 201}},
					{"index": {"_index": "hosts", "_id": "2", "result": "updated", "status": 200}},
					{"index": {"_index": "hosts", "_id": "3", "status": 400,
						"error": {"type": "mapper_parsing_exception", "reason": "failed to parse"}}},
					{"index": {"_index": "hosts", "_id": "4", "status": 201}}
				]}`))

			outcome, err := manager.IndexDocumentBulk(ctx, "hosts", "", documents)
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Created).To(Equal([]string{"1", "4"}))
			Expect(outcome.Updated).To(Equal([]string{"2"}))
			Expect(outcome.Errors).To(Equal([]index.BulkError{
				{ID: "3", Cause: "mapper_parsing_exception: failed to parse"},
			}))
			Expect(outcome.Total()).To(Equal(len(documents)))
		})

		It("does not call the cluster for an empty batch", func() {
			outcome, err := manager.IndexDocumentBulk(ctx, "hosts", "", nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(outcome.Total()).To(Equal(0))
			Expect(outcome.Created).ToNot(BeNil())
			Expect(transport.GetTotalCallCount()).To(Equal(0))
		})

		It("returns a bulk request error when the whole request fails", func() {
			transport.RegisterResponder("POST", test.Url("/hosts/_bulk"), httpmock.NewStringResponder(413, `{}`))

			outcome, err := manager.IndexDocumentBulk(ctx, "hosts", "", documents)
			Expect(errors.Is(err, index.ErrBulkRequest)).To(BeTrue())
			Expect(errors.Is(err, index.ErrClusterWrite)).To(BeTrue())
			Expect(outcome.Total()).To(Equal(0))
		})

		It("requires an index", func() {
			_, err := manager.IndexDocumentBulk(ctx, "", "", documents)
			Expect(errors.Is(err, index.ErrInvalidArgument)).To(BeTrue())
			Expect(transport.GetTotalCallCount()).To(Equal(0))
		})
	})
})
