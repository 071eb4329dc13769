// pkg/corpus/corpus.go
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a corpus seed file. YAML and JSON are accepted, chosen by extension.
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Corpus
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &c)
	default:
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects documents that could never be served as an answer.
func (c *Corpus) Validate() error {
	seen := make(map[string]struct{}, len(c.Documents))
	for i, doc := range c.Documents {
		if strings.TrimSpace(doc.Question) == "" {
			return fmt.Errorf("document %d: question is required", i)
		}
		if strings.TrimSpace(doc.Answer) == "" {
			return fmt.Errorf("document %d: reponse is required", i)
		}
		if doc.ID == "" {
			continue
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("document %d: duplicate id %q", i, doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}
	return nil
}
