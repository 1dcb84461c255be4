package index_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	"github.com/redhatinsights/es-index-lifecycle/test"
)

var _ = Describe("Index namer", func() {
	It("appends the UTC second to the prefix", func() {
		es, _ := test.NewMockElasticSearch()
		eastern := time.FixedZone("EST", -5*60*60)
		manager := index.NewManager(es, index.Options{Clock: func() time.Time {
			return time.Date(2023, 12, 31, 19, 0, 0, 0, eastern)
		}})

		Expect(manager.TimestampedName("logs")).To(Equal("logs_20240101000000"))
	})

	It("produces names that sort by creation time", func() {
		now := time.Date(2024, 1, 1, 0, 0, 59, 0, time.UTC)
		es, _ := test.NewMockElasticSearch()
		manager := index.NewManager(es, index.Options{Clock: func() time.Time { return now }})

		first := manager.TimestampedName("logs")
		now = now.Add(time.Second)
		second := manager.TimestampedName("logs")

		Expect(first < second).To(BeTrue())
	})
})
