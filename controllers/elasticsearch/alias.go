package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/go-errors/errors"
	"sort"
)

//GetAlias returns a map of index name to the aliases of that index matching name
func (es *ElasticSearch) GetAlias(ctx context.Context, name string) (map[string][]string, error) {
	req := esapi.IndicesGetAliasRequest{
		Name: []string{name},
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

	var aliasResponse GetAliasResponse
	err = json.Unmarshal(body, &aliasResponse)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	indices := make(map[string][]string, len(aliasResponse))
	for index, value := range aliasResponse {
		aliases := make([]string, 0, len(value.Aliases))
		for alias := range value.Aliases {
			aliases = append(aliases, alias)
		}
		sort.Strings(aliases)
		indices[index] = aliases
	}

	return indices, nil
}

//UpdateAliases submits all actions in one request, the cluster applies them atomically
func (es *ElasticSearch) UpdateAliases(ctx context.Context, actions []AliasAction) error {
	req := UpdateAliasRequest{
		Actions: actions,
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	ctx, cancel := es.withDefaultTimeout(ctx)
	defer cancel()
	res, err := es.Client.Indices.UpdateAliases(
		bytes.NewReader(reqJSON),
		es.Client.Indices.UpdateAliases.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, 0)
	}

	_, _, err = parseResponse(res)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
