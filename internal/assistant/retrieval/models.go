// internal/assistant/retrieval/models.go
package retrieval

import (
	"encoding/json"
	"strings"
)

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	ID     string    `json:"_id"`
	Score  *float64  `json:"_score"`
	Source hitSource `json:"_source"`
}

type hitSource struct {
	Question string  `json:"question"`
	Answer   string  `json:"reponse"`
	Tags     tagList `json:"tags"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// tagList accepts tags stored either as an array or as one free-text string.
type tagList []string

func (t *tagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		*t = nil
		return nil
	}
	single = strings.TrimSpace(single)
	if single == "" {
		*t = nil
		return nil
	}
	*t = tagList{single}
	return nil
}
