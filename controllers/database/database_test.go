package database_test

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-errors/errors"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redhatinsights/es-index-lifecycle/controllers/database"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
)

const query = "SELECT id, document FROM hosts ORDER BY id"

var _ = Describe("Database", func() {
	var db *database.Database
	var mock sqlmock.Sqlmock

	BeforeEach(func() {
		conn, sqlMock, err := sqlmock.New()
		Expect(err).ToNot(HaveOccurred())
		mock = sqlMock
		db = database.NewDatabaseWithConnection(sqlx.NewDb(conn, "sqlmock"), database.DBParams{Query: query})
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	rows := func(count int) *sqlmock.Rows {
		result := sqlmock.NewRows([]string{"id", "document"})
		for i := 1; i <= count; i++ {
			id := string(rune('0' + i))
			result.AddRow(id, []byte(`{"id": "`+id+`"}`))
		}
		return result
	}

	It("splits the rows into batches in order", func() {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows(5))

		var batches [][]string
		err := db.Batches(context.Background(), 2, func(batch []elasticsearch.Document) error {
			var ids []string
			for _, document := range batch {
				ids = append(ids, document.ID)
			}
			batches = append(batches, ids)
			return nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(batches).To(Equal([][]string{{"1", "2"}, {"3", "4"}, {"5"}}))
	})

	It("keeps each document as raw json", func() {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows(1))

		var bodies []string
		err := db.Batches(context.Background(), 10, func(batch []elasticsearch.Document) error {
			for _, document := range batch {
				out, err := json.Marshal(document.Body)
				Expect(err).ToNot(HaveOccurred())
				bodies = append(bodies, string(out))
			}
			return nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(bodies).To(Equal([]string{`{"id":"1"}`}))
	})

	It("does not call the handler without rows", func() {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows(0))

		calls := 0
		err := db.Batches(context.Background(), 10, func(batch []elasticsearch.Document) error {
			calls++
			return nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(calls).To(Equal(0))
	})

	It("stops at the first handler error", func() {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows(5))
		stop := errors.New("stop")

		calls := 0
		err := db.Batches(context.Background(), 2, func(batch []elasticsearch.Document) error {
			calls++
			return stop
		})
		Expect(errors.Is(err, stop)).To(BeTrue())
		Expect(calls).To(Equal(1))
	})

	It("returns query errors", func() {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnError(errors.New("relation does not exist"))

		err := db.Batches(context.Background(), 2, func(batch []elasticsearch.Document) error {
			return nil
		})
		Expect(err).To(MatchError(ContainSubstring("relation does not exist")))
	})

	It("rejects a non positive batch size", func() {
		err := db.Batches(context.Background(), 0, func(batch []elasticsearch.Document) error {
			return nil
		})
		Expect(err).To(HaveOccurred())
	})
})
