package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal-assistant/internal/common/config"
)

func fakeCluster(t *testing.T, handler http.HandlerFunc) config.ElasticsearchConfig {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return config.ElasticsearchConfig{Addresses: []string{srv.URL}, RequestTimeout: 2000}
}

func TestElasticsearch_PingAndIndexExists(t *testing.T) {
	cfg := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/assistant_fiscal_v2":
			w.WriteHeader(http.StatusOK)
		case "/absent":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		}
	})

	es, err := NewElasticsearch(cfg)
	require.NoError(t, err)
	require.NoError(t, es.Ping(context.Background()))

	ok, err := es.IndexExists(context.Background(), "assistant_fiscal_v2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = es.IndexExists(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestElasticsearch_PingError(t *testing.T) {
	cfg := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	es, err := NewElasticsearch(cfg)
	require.NoError(t, err)
	assert.Error(t, es.Ping(context.Background()))
}

func TestElasticsearch_URLFallback(t *testing.T) {
	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: "http://localhost:9200"})
	require.NoError(t, err)
	assert.NotNil(t, es.Client)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, rdb.Ping(context.Background()))
	assert.NoError(t, rdb.Close())

	_, err = NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}
