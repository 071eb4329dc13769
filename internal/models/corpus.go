// internal/models/corpus.go
package models

// Document is the shape of a knowledge-corpus entry as stored in the search index.
type Document struct {
	ID       string   `json:"-" yaml:"id"`
	Question string   `json:"question" yaml:"question"`
	Answer   string   `json:"reponse" yaml:"reponse"`
	Tags     []string `json:"tags,omitempty" yaml:"tags"`
}
