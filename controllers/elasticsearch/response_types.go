package elasticsearch

import "encoding/json"

type IndexSettingsResponse map[string]struct {
	Settings struct {
		Index struct {
			CreationDate json.Number `json:"creation_date"`
		} `json:"index"`
	} `json:"settings"`
}

type GetAliasResponse map[string]struct {
	Aliases map[string]json.RawMessage `json:"aliases"`
}

type BulkResponse struct {
	Took   int                           `json:"took"`
	Errors bool                          `json:"errors"`
	Items  []map[string]BulkResponseItem `json:"items"`
}

type BulkResponseItem struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Result string         `json:"result"`
	Status int            `json:"status"`
	Error  *BulkItemError `json:"error,omitempty"`
}

type BulkItemError struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e BulkItemError) String() string {
	if e.Reason == "" {
		return e.Type
	}
	return e.Type + ": " + e.Reason
}
