package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/go-errors/errors"
)

const defaultDocumentType = "_doc"

func (es *ElasticSearch) IndexDocument(
	ctx context.Context, index string, docType string, id string, document interface{}) error {

	reqJSON, err := json.Marshal(document)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	if docType == "" {
		docType = defaultDocumentType
	}

	req := esapi.IndexRequest{
		Index:        index,
		DocumentType: docType,
		DocumentID:   id,
		Body:         bytes.NewReader(reqJSON),
	}

	ctx, cancel := es.withDefaultTimeout(ctx)
	defer cancel()
	res, err := req.Do(ctx, es.Client)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	_, _, err = parseResponse(res)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

//Bulk sends one index action per document, in order, and returns the per item results
func (es *ElasticSearch) Bulk(
	ctx context.Context, index string, docType string, documents []Document) (*BulkResponse, error) {

	body, err := BulkBody(documents)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	req := esapi.BulkRequest{
		Index:        index,
		DocumentType: docType,
		Body:         bytes.NewReader(body),
	}

	ctx, cancel := es.withDefaultTimeout(ctx)
	defer cancel()
	res, err := req.Do(ctx, es.Client)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	_, resBody, err := parseResponse(res)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var bulkResponse BulkResponse
	err = json.Unmarshal(resBody, &bulkResponse)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return &bulkResponse, nil
}

//BulkBody encodes documents as newline delimited action/source pairs
func BulkBody(documents []Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)

	for _, document := range documents {
		action := BulkIndexAction{
			Index: BulkActionMetadata{ID: document.ID},
		}
		if err := encoder.Encode(action); err != nil {
			return nil, errors.Wrap(err, 0)
		}

		source, err := json.Marshal(document.Body)
		if err != nil {
			return nil, errors.Wrap(err, 0)
		}
		//json.Marshal compacts, so each source stays on one line
		buf.Write(source)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
