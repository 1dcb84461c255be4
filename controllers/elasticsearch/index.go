package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/go-errors/errors"
)

const creationDateSetting = "index.creation_date"

func (es *ElasticSearch) CreateIndex(ctx context.Context, name string, body map[string]interface{}) error {
	if body == nil {
		body = map[string]interface{}{}
	}
	reqJSON, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	req := &esapi.IndicesCreateRequest{
		Index: name,
		Body:  bytes.NewReader(reqJSON),
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

func (es *ElasticSearch) DeleteIndex(ctx context.Context, name string) error {
	req := esapi.IndicesDeleteRequest{
		Index: []string{name},
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

//ForceMerge blocks until the merge finishes or ctx expires, callers are expected to pass a long deadline
func (es *ElasticSearch) ForceMerge(ctx context.Context, name string, maxSegments int) error {
	req := esapi.IndicesForcemergeRequest{
		Index:          []string{name},
		MaxNumSegments: &maxSegments,
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

//GetCreationDates returns the creation_date, in epoch millis, of every index matching pattern
func (es *ElasticSearch) GetCreationDates(ctx context.Context, pattern string) (map[string]int64, error) {
	req := esapi.IndicesGetSettingsRequest{
		Index: []string{pattern},
		Name:  []string{creationDateSetting},
	}

	ctx, cancel := es.withDefaultTimeout(ctx)
	defer cancel()
	res, err := req.Do(ctx, es.Client)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	_, body, err := parseResponse(res)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var settings IndexSettingsResponse
	err = json.Unmarshal(body, &settings)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	creationDates := make(map[string]int64, len(settings))
	for index, value := range settings {
		creationDate, err := value.Settings.Index.CreationDate.Int64()
		if err != nil {
			return nil, errors.Wrap(errors.Errorf(
				"invalid creation_date %q for index %s", value.Settings.Index.CreationDate, index), 0)
		}
		creationDates[index] = creationDate
	}

	return creationDates, nil
}
