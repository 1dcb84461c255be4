package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-errors/errors"
	"github.com/redhatinsights/es-index-lifecycle/controllers/database"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/spf13/cobra"
)

const maxLineSize = 16 * 1024 * 1024

type ingestLine struct {
	ID       string          `json:"id"`
	Document json.RawMessage `json:"doc"`
}

//fileSource reads newline delimited {"id": ..., "doc": {...}} records
type fileSource struct {
	reader io.ReadCloser
}

var _ database.DocumentSource = &fileSource{}

func (s *fileSource) Batches(
	ctx context.Context, batchSize int, handle func(batch []elasticsearch.Document) error) error {

	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	batch := make([]elasticsearch.Document, 0, batchSize)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, 0)
		}

		var line ingestLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			return errors.WrapPrefix(err, fmt.Sprintf("invalid record on line %d", lineNumber), 0)
		}
		if line.ID == "" || len(line.Document) == 0 {
			return errors.Errorf("record on line %d needs an id and a doc", lineNumber)
		}

		batch = append(batch, elasticsearch.Document{ID: line.ID, Body: line.Document})
		if len(batch) == batchSize {
			if err := handle(batch); err != nil {
				return err
			}
			batch = make([]elasticsearch.Document, 0, batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, 0)
	}

	if len(batch) > 0 {
		return handle(batch)
	}
	return nil
}

func (s *fileSource) Close() error {
	return s.reader.Close()
}

type ingestSummary struct {
	Index   string `json:"index"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Errored int    `json:"errored"`
}

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <index> <file|->",
		Short: "Bulk index a newline delimited file of {\"id\": ..., \"doc\": {...}} records",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var reader io.ReadCloser = os.Stdin
			if args[1] != "-" {
				file, err := os.Open(args[1])
				if err != nil {
					return errors.Wrap(err, 0)
				}
				reader = file
			}
			source := &fileSource{reader: reader}
			defer source.Close()

			summary := ingestSummary{Index: name}
			docType := a.config.Parameters.DocumentType.String()
			err := source.Batches(cmd.Context(), a.config.Parameters.BulkBatchSize.Int(),
				func(batch []elasticsearch.Document) error {
					outcome, err := a.manager.IndexDocumentBulk(cmd.Context(), name, docType, batch)
					if err != nil {
						return err
					}
					summary.Created += len(outcome.Created)
					summary.Updated += len(outcome.Updated)
					summary.Errored += len(outcome.Errors)
					for _, bulkError := range outcome.Errors {
						log.Warn("Document rejected", "index", name, "id", bulkError.ID, "cause", bulkError.Cause)
					}
					return nil
				})
			if err != nil {
				return err
			}

			return printJSON(cmd, summary)
		},
	}
}
