// pkg/corpus/indexer.go
package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"

	"fiscal-assistant/internal/common/logger"
)

// IndexStats summarises one seeding run.
type IndexStats struct {
	Indexed  uint64
	Failed   uint64
	Created  bool
	Duration time.Duration
}

// EnsureIndex creates index with IndexMapping when it does not exist yet.
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, index string) (bool, error) {
	res, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("check index %s: %s", index, res.Status())
	}

	res, err = client.Indices.Create(index,
		client.Indices.Create.WithBody(strings.NewReader(IndexMapping)),
		client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("create index %s: %s: %s", index, res.Status(), body)
	}
	return true, nil
}

// Index bulk-loads the corpus documents into index, creating it when missing.
func Index(ctx context.Context, client *elasticsearch.Client, index string, c *Corpus, log logger.Logger) (IndexStats, error) {
	start := time.Now()
	var stats IndexStats

	created, err := EnsureIndex(ctx, client, index)
	if err != nil {
		return stats, err
	}
	stats.Created = created
	if created {
		log.Info("index created", map[string]interface{}{"index": index})
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        client,
		Index:         index,
		NumWorkers:    2,
		FlushBytes:    1 << 20,
		FlushInterval: time.Second,
		Refresh:       "wait_for",
	})
	if err != nil {
		return stats, fmt.Errorf("create bulk indexer: %w", err)
	}

	for i, doc := range c.Documents {
		body, err := json.Marshal(doc)
		if err != nil {
			return stats, fmt.Errorf("encode document %d: %w", i, err)
		}

		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.ID,
			Body:       bytes.NewReader(body),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				fields := map[string]interface{}{"documentId": item.DocumentID}
				if err != nil {
					fields["error"] = err.Error()
				} else {
					fields["error"] = res.Error.Type + ": " + res.Error.Reason
				}
				log.Warn("document not indexed", fields)
			},
		})
		if err != nil {
			return stats, fmt.Errorf("queue document %d: %w", i, err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return stats, fmt.Errorf("flush bulk indexer: %w", err)
	}

	s := bi.Stats()
	stats.Indexed = s.NumFlushed
	stats.Failed = s.NumFailed
	stats.Duration = time.Since(start)

	log.Info("corpus indexed", map[string]interface{}{
		"index":      index,
		"indexed":    stats.Indexed,
		"failed":     stats.Failed,
		"durationMs": stats.Duration.Milliseconds(),
	})
	return stats, nil
}
