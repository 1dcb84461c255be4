package elasticsearch

import "encoding/json"

type UpdateAliasRequest struct {
	Actions []AliasAction `json:"actions"`
}

//AliasAction holds exactly one of Add or Remove
type AliasAction struct {
	Add    *AliasActionTarget `json:"add,omitempty"`
	Remove *AliasActionTarget `json:"remove,omitempty"`
}

type AliasActionTarget struct {
	Indices IndexNames `json:"indices"`
	Alias   string     `json:"alias"`
}

func AddAliasAction(alias string, indices ...string) AliasAction {
	return AliasAction{
		Add: &AliasActionTarget{Indices: indices, Alias: alias},
	}
}

func RemoveAliasAction(alias string, indices ...string) AliasAction {
	return AliasAction{
		Remove: &AliasActionTarget{Indices: indices, Alias: alias},
	}
}

//IndexNames is encoded as a plain string when it holds a single index
type IndexNames []string

func (n IndexNames) MarshalJSON() ([]byte, error) {
	if len(n) == 1 {
		return json.Marshal(n[0])
	}
	return json.Marshal([]string(n))
}

func (n *IndexNames) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*n = IndexNames{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*n = many
	return nil
}

type BulkIndexAction struct {
	Index BulkActionMetadata `json:"index"`
}

type BulkActionMetadata struct {
	ID string `json:"_id"`
}

//Document is a single bulk entry. Body must marshal to a JSON object, json.RawMessage is sent as is.
type Document struct {
	ID   string
	Body interface{}
}
