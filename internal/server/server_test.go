package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawlabs/arenabot/internal/crypto"
	"github.com/clawlabs/arenabot/internal/domain"
	"github.com/clawlabs/arenabot/internal/engine"
	"github.com/clawlabs/arenabot/internal/ledger"
	"github.com/clawlabs/arenabot/internal/server/handler"
	"github.com/clawlabs/arenabot/internal/service"
	"github.com/clawlabs/arenabot/internal/store/memory"
	"github.com/clawlabs/arenabot/internal/strategy"
)

type testEnv struct {
	srv    *httptest.Server
	ledger *ledger.Ledger
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	history := make([]float64, 30)
	for i := range history {
		history[i] = 100
	}
	l := ledger.New(ledger.Config{
		Assets: []domain.MarketAsset{
			{Symbol: "BTC", Price: 100, MA30: 100, PriceHistory: history},
		},
	})

	reg := strategy.NewRegistry()
	reg.Register(string(domain.BotMartingale), strategy.NewMeanReversion(logger))
	reg.Register(string(domain.BotOpenClaw), strategy.NewExternal(logger))

	e := engine.New(engine.Config{Ledger: l, Registry: reg, Logger: logger})
	svc := service.NewLeaderboardService(l, memory.NewLeaderboardStore(), logger)

	token, err := crypto.NewToken()
	require.NoError(t, err)
	hash, err := crypto.HashToken(token)
	require.NoError(t, err)

	s := NewServer(Config{
		Port: 0,
		VerifyClawToken: func(presented string) bool {
			return crypto.VerifyToken(presented, hash)
		},
	}, Handlers{
		Health:      handler.NewHealthHandler(logger),
		Portfolio:   handler.NewPortfolioHandler(l, e, logger),
		Tick:        handler.NewTickHandler(e, l, logger),
		Decision:    handler.NewDecisionHandler(e, l, logger),
		Bot:         handler.NewBotHandler(l, reg, nil, logger),
		Leaderboard: handler.NewLeaderboardHandler(svc, logger),
	}, logger)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: ts, ledger: l, token: token}
}

func (env *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, env.srv.URL+path, reader)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &parsed), string(data))
	}
	return resp, parsed
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestGetPortfolio(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/portfolio", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(ledger.InitialCapital), body["balance"])
	assert.Equal(t, "martingale", body["activeBot"])
}

func TestManualTick(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "POST", "/api/tick", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["lastTickAt"])
}

func TestBotLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/bot", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "martingale", body["activeBot"])

	resp, body = env.do(t, "PUT", "/api/bot",
		`{"bot":"openclaw","instructions":["trade small"]}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "openclaw", body["activeBot"])
	assert.Equal(t, []any{"trade small"}, body["instructions"])

	resp, _ = env.do(t, "PUT", "/api/bot", `{"bot":"quantum"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrainWithoutAdvisor(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/bot/train", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDecisionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	auth := map[string]string{"Authorization": "Bearer " + env.token}

	t.Run("requires claw token", func(t *testing.T) {
		resp, _ := env.do(t, "POST", "/api/decision",
			`{"action":"BUY","asset":"BTC","w":0.6,"r":1.5}`, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejected while openclaw inactive", func(t *testing.T) {
		resp, _ := env.do(t, "POST", "/api/decision",
			`{"action":"BUY","asset":"BTC","w":0.6,"r":1.5}`, auth)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("executes when active", func(t *testing.T) {
		env.ledger.SetActiveBot(domain.BotOpenClaw)

		resp, _ := env.do(t, "POST", "/api/decision",
			`{"action":"BUY","asset":"BTC","reasoning":"external","w":0.6,"r":1.5}`, auth)
		assert.Equal(t, http.StatusAccepted, resp.StatusCode)
		assert.Len(t, env.ledger.OpenPositions(), 1)
	})

	t.Run("validates action", func(t *testing.T) {
		resp, _ := env.do(t, "POST", "/api/decision",
			`{"action":"SHORT","asset":"BTC"}`, auth)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/leaderboard", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["entries"])

	resp, _ = env.do(t, "POST", "/api/leaderboard",
		`{"walletAddress":"not-an-address","botName":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/leaderboard",
		fmt.Sprintf(`{"walletAddress":%q,"botName":"Claw One"}`, "0x8ba1f109551bd432803012645ac136ddd64dba72"), nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = env.do(t, "GET", "/api/leaderboard", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 1)
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/thoughts", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["thoughts"])

	resp, body = env.do(t, "GET", "/api/equity?limit=1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	equity, ok := body["equity"].([]any)
	require.True(t, ok)
	assert.Len(t, equity, 1)

	resp, _ = env.do(t, "GET", "/api/trades", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKeyAuth(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	l := ledger.New(ledger.Config{Assets: []domain.MarketAsset{{Symbol: "BTC", Price: 100}}})
	reg := strategy.NewRegistry()
	reg.Register(string(domain.BotMartingale), strategy.NewMeanReversion(logger))
	e := engine.New(engine.Config{Ledger: l, Registry: reg, Logger: logger})
	svc := service.NewLeaderboardService(l, memory.NewLeaderboardStore(), logger)

	s := NewServer(Config{APIKey: "secret"}, Handlers{
		Health:      handler.NewHealthHandler(logger),
		Portfolio:   handler.NewPortfolioHandler(l, e, logger),
		Tick:        handler.NewTickHandler(e, l, logger),
		Decision:    handler.NewDecisionHandler(e, l, logger),
		Bot:         handler.NewBotHandler(l, reg, nil, logger),
		Leaderboard: handler.NewLeaderboardHandler(svc, logger),
	}, logger)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/portfolio")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest("GET", ts.URL+"/api/portfolio", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
