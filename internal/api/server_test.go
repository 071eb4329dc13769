package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscal-assistant/internal/assistant/agent"
	"fiscal-assistant/internal/assistant/cache"
	"fiscal-assistant/internal/assistant/llm"
	"fiscal-assistant/internal/assistant/session"
	"fiscal-assistant/internal/common/config"
	"fiscal-assistant/internal/common/logger"
)

// ==========================
// Test Helpers
// ==========================

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(context.Context) error { return p.err }

type testServer struct {
	server   *Server
	provider *llm.MockProvider
	cache    *cache.MemoryCache
	sessions *session.Manager
}

func createTestConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:           "0",
		APIKey:         "ma-cle-secrete",
		AllowOrigins:   "*",
		RequestTimeout: 5000,
	}
}

func setupServer(t *testing.T, provider *llm.MockProvider, search Pinger) *testServer {
	log := logger.NewTestLogger(t)
	c := cache.NewMemoryCache(0, log)
	sessions := session.NewManager(nil, func(id string) *agent.Orchestrator {
		return agent.New(agent.DefaultConfig(), id, agent.Dependencies{
			LLM:    provider,
			Cache:  c,
			Logger: log,
		})
	}, c, log)
	t.Cleanup(sessions.Close)

	srv := New(createTestConfig(), Dependencies{
		Sessions: sessions,
		Cache:    c,
		Search:   search,
		Logger:   log,
	})
	return &testServer{server: srv, provider: provider, cache: c, sessions: sessions}
}

func ask(question string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/fiscalite?question="+url.QueryEscape(question), nil)
}

func doRequest(t *testing.T, ts *testServer, req *http.Request) (*http.Response, MessageResponse) {
	resp, err := ts.server.App().Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var msg MessageResponse
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &msg), string(body))
	}
	return resp, msg
}

// ==========================
// GET /fiscalite
// ==========================

func TestAsk_WithoutSessionIsOneShot(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("La TVA est déclarée mensuellement."), nil)

	resp, msg := doRequest(t, ts, ask("Quels sont les délais pour la déclaration de TVA ?"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "La TVA est déclarée mensuellement.", msg.Message)
	assert.Empty(t, msg.SessionID)
	assert.Empty(t, resp.Header.Get(HeaderSessionID))
	assert.Equal(t, 0, ts.sessions.Count())
}

func TestAsk_HeaderlessRequestsRetainNothing(t *testing.T) {
	replies := make([]string, 50)
	for i := range replies {
		replies[i] = "18 %"
	}
	ts := setupServer(t, llm.NewScriptedMock(replies...), nil)

	for i := 0; i < 50; i++ {
		resp, _ := doRequest(t, ts, ask("Quel est le taux de TVA ?"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Equal(t, 0, ts.sessions.Count())
	assert.Equal(t, 0, ts.cache.Len())
	for _, call := range ts.provider.Calls() {
		assert.Len(t, call, 2, "no history leaks between one-shot requests")
	}
}

func TestAsk_SessionHeaderKeepsConversation(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("18 %", "Oui, l'export est exonéré."), nil)

	req := ask("Quel est le taux de TVA ?")
	req.Header.Set(HeaderSessionID, "client-42")
	_, first := doRequest(t, ts, req)
	assert.Equal(t, "client-42", first.SessionID)
	assert.Equal(t, 1, ts.sessions.Count())

	req = ask("Et à l'export ?")
	req.Header.Set(HeaderSessionID, "client-42")
	_, second := doRequest(t, ts, req)
	assert.Equal(t, "Oui, l'export est exonéré.", second.Message)

	calls := ts.provider.Calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[1], 4, "second turn carries the first exchange")
}

func TestAsk_ShortQuestion(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("unused"), nil)

	for _, q := range []string{"", "  ", "xy", " a b "} {
		resp, msg := doRequest(t, ts, ask(q))
		assert.Equal(t, http.StatusOK, resp.StatusCode, q)
		assert.Equal(t, ShortQuestionMessage, msg.Message, q)
	}
	assert.Equal(t, 0, ts.provider.CallCount())
	assert.Equal(t, 0, ts.sessions.Count())
}

func TestAsk_APIKey(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("ok"), nil)

	req := ask("taux de TVA")
	req.Header.Set(HeaderAPIKey, "mauvaise-cle")
	resp, msg := doRequest(t, ts, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, UnauthorizedMessage, msg.Message)
	assert.Equal(t, 0, ts.provider.CallCount())

	req = ask("taux de TVA")
	req.Header.Set(HeaderAPIKey, "ma-cle-secrete")
	resp, _ = doRequest(t, ts, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, ts, ask("taux de TVA"))
	assert.Equal(t, http.StatusOK, resp.StatusCode, "the key is optional")
}

func TestAPIKeyMiddleware_NoKeyConfigured(t *testing.T) {
	app := fiber.New()
	app.Get("/", APIKeyMiddleware(""), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for _, key := range []string{"", "nimporte-quelle-cle"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if key != "" {
			req.Header.Set(HeaderAPIKey, key)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, key)
	}
}

func TestAsk_TurnFailure(t *testing.T) {
	ts := setupServer(t, llm.NewMockProvider(nil, llm.MockReply{Err: errors.New("upstream down")}), nil)

	resp, msg := doRequest(t, ts, ask("taux de TVA"))

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, agent.RetryMessage, msg.Message)
	assert.Equal(t, "LLM_FAILED", msg.Code)
	assert.Empty(t, msg.SessionID)
}

// ==========================
// Cache and sessions
// ==========================

func TestClearCache(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("ok"), nil)
	ctx := context.Background()
	ts.cache.Put(ctx, "a", "tva", "18 %")
	ts.cache.Put(ctx, "b", "tva", "18 %")

	req := httptest.NewRequest(http.MethodDelete, "/fiscalite/cache", nil)
	req.Header.Set(HeaderSessionID, "a")
	resp, msg := doRequest(t, ts, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, agent.CacheClearedMessage, msg.Message)

	_, ok := ts.cache.Get(ctx, "a", "tva")
	assert.False(t, ok)
	_, ok = ts.cache.Get(ctx, "b", "tva")
	assert.True(t, ok)

	resp, _ = doRequest(t, ts, httptest.NewRequest(http.MethodDelete, "/fiscalite/cache", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, ts.cache.Len())
}

func TestClearCache_WrongKey(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("ok"), nil)
	ts.cache.Put(context.Background(), "a", "tva", "18 %")

	req := httptest.NewRequest(http.MethodDelete, "/fiscalite/cache", nil)
	req.Header.Set(HeaderAPIKey, "nope")
	resp, _ := doRequest(t, ts, req)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, ts.cache.Len())
}

func TestDropSession(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("ok"), nil)
	ts.sessions.GetOrCreate("client-1")

	resp, _ := doRequest(t, ts, httptest.NewRequest(http.MethodDelete, "/fiscalite/sessions/client-1", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, ts.sessions.Count())

	resp, msg := doRequest(t, ts, httptest.NewRequest(http.MethodDelete, "/fiscalite/sessions/client-1", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "session not found", msg.Message)
}

// ==========================
// Probes
// ==========================

func TestHealthAndReady(t *testing.T) {
	pinger := &fakePinger{}
	ts := setupServer(t, llm.NewScriptedMock("ok"), pinger)

	resp, err := ts.server.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.server.App().Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	pinger.err = errors.New("connection refused")
	resp, err = ts.server.App().Test(httptest.NewRequest(http.MethodGet, "/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "unavailable", status.Status)
	assert.Equal(t, "connection refused", status.Error)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServer(t, llm.NewScriptedMock("ok"), nil)

	resp, err := ts.server.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "go_goroutines")
}
