// pkg/corpus/schema.go
package corpus

import "fiscal-assistant/internal/models"

// Corpus is a seed file for the knowledge index.
type Corpus struct {
	Version     string            `json:"version" yaml:"version"`
	LastUpdated string            `json:"lastUpdated" yaml:"lastUpdated"`
	Index       string            `json:"index,omitempty" yaml:"index,omitempty"`
	Documents   []models.Document `json:"documents" yaml:"documents"`
}

// IndexMapping is the mapping created for the knowledge index when it does not exist.
const IndexMapping = `{
	"settings": {
		"analysis": {
			"analyzer": {
				"french_folded": {
					"tokenizer": "standard",
					"filter": ["lowercase", "asciifolding", "french_elision", "french_stemmer"]
				}
			},
			"filter": {
				"french_elision": {
					"type": "elision",
					"articles_case": true,
					"articles": ["l", "m", "t", "qu", "n", "s", "j", "d", "c"]
				},
				"french_stemmer": {"type": "stemmer", "language": "light_french"}
			}
		}
	},
	"mappings": {
		"properties": {
			"question": {"type": "text", "analyzer": "french_folded"},
			"reponse": {"type": "text", "analyzer": "french_folded"},
			"tags": {"type": "text", "analyzer": "french_folded"}
		}
	}
}`
