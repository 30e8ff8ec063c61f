package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	dedup "signal_portal/internal/modules/dedup/service"
	enginesvc "signal_portal/internal/modules/engine/service"
	hubsvc "signal_portal/internal/modules/hub/service"
	"signal_portal/pkg/logger"
)

func init() {
	logger.InitNop()
}

type emptySource struct{}

func (emptySource) GetCandles(context.Context, string, models.Timeframe, int) ([]models.Candle, error) {
	return nil, nil
}

type stubMarket struct {
	ticker models.Ticker
	err    error
}

func (m stubMarket) GetTicker(context.Context, string) (models.Ticker, error) {
	return m.ticker, m.err
}

func newTestServer() (*Server, *hubsvc.Hub) {
	cfg := &config.Config{
		TickInterval:  time.Hour,
		StopGrace:     time.Second,
		MaxConcurrent: 2,
		CandleLimit:   100,
		Timeframes:    []string{"1h"},
		Strategy:      models.DefaultStrategyConfig(),
	}
	cfg.Service.Host = "127.0.0.1"
	cfg.Service.PublicPort = 0

	h := hubsvc.NewHub(8, 100, nil)
	eng := enginesvc.NewEngine(cfg, emptySource{}, dedup.NewMemory(), h)
	return NewServer(cfg, eng, h, nil, stubMarket{}), h
}

func do(s *Server, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestParseFilter(t *testing.T) {
	q, _ := url.ParseQuery("symbols=BTCUSDT,ETHUSDT&timeframes=1h&strategies=RSI")
	f := parseFilter(q)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, f.Symbols)
	assert.Equal(t, []models.Timeframe{models.TF1h}, f.Timeframes)
	assert.Equal(t, []models.StrategyKind{models.KindRSI}, f.Strategies)

	f = parseFilter(url.Values{})
	assert.Empty(t, f.Symbols)
	assert.Empty(t, f.Timeframes)
	assert.Empty(t, f.Strategies)
}

func TestTickerEndpoint(t *testing.T) {
	s, _ := newTestServer()
	s.market = stubMarket{ticker: models.Ticker{
		Symbol:         "BTCUSDT",
		LastPrice:      64123.5,
		PriceChangePct: 2.4,
		QuoteVolume:    1.2e9,
		High:           65000,
		Low:            62000,
	}}

	rec := do(s, http.MethodGet, "/api/market/ticker?symbol=btcusdt", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Ticker
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "BTCUSDT", got.Symbol)
	assert.Equal(t, 64123.5, got.LastPrice)

	rec = do(s, http.MethodGet, "/api/market/ticker", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.market = stubMarket{err: &models.FetchError{Symbol: "BTCUSDT", Transient: true,
		Err: context.DeadlineExceeded}}
	rec = do(s, http.MethodGet, "/api/market/ticker?symbol=BTCUSDT", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestEngineStatusEndpoint(t *testing.T) {
	s, _ := newTestServer()

	rec := do(s, http.MethodGet, "/api/engine/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st enginesvc.Status
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, enginesvc.StateStopped, st.State)
}

func TestEngineStartStopEndpoints(t *testing.T) {
	s, _ := newTestServer()

	rec := do(s, http.MethodPost, "/api/engine/start", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/engine/status", "")
	var st enginesvc.Status
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, enginesvc.StateRunning, st.State)

	rec = do(s, http.MethodPost, "/api/engine/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/engine/start", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecentEndpointFilters(t *testing.T) {
	s, h := newTestServer()
	h.Publish(models.Signal{Symbol: "BTCUSDT", Timeframe: models.TF1h, Strategy: models.KindRSI})
	h.Publish(models.Signal{Symbol: "ETHUSDT", Timeframe: models.TF1h, Strategy: models.KindMACD})

	rec := do(s, http.MethodGet, "/api/signals/recent?symbols=BTCUSDT", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Signals []models.Signal `json:"signals"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Signals, 1)
	assert.Equal(t, "BTCUSDT", resp.Signals[0].Symbol)
}

func TestAnalyzeEndpoint(t *testing.T) {
	s, _ := newTestServer()

	rec := do(s, http.MethodPost, "/api/engine/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Emitted int             `json:"emitted"`
		Signals []models.Signal `json:"signals"`
	}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Emitted)
	assert.Empty(t, resp.Signals)
}

func TestConfigEndpointRoundTrip(t *testing.T) {
	s, _ := newTestServer()

	rec := do(s, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload configPayload
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 14, payload.Strategy.RSI.Period)

	payload.Strategy.RSI.Period = 21
	body, _ := sonic.Marshal(payload)
	rec = do(s, http.MethodPut, "/api/config", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/config", "")
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 21, payload.Strategy.RSI.Period)
}

func TestConfigEndpointRejectsInvalid(t *testing.T) {
	s, _ := newTestServer()

	rec := do(s, http.MethodPut, "/api/config", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := configPayload{Strategy: models.DefaultStrategyConfig()}
	bad.Strategy.MACD.FastPeriod = 99
	body, _ := sonic.Marshal(bad)
	rec = do(s, http.MethodPut, "/api/config", string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the active config is untouched
	rec = do(s, http.MethodGet, "/api/config", "")
	var payload configPayload
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, 12, payload.Strategy.MACD.FastPeriod)
}

func TestBuildMatrixValidatesDimensions(t *testing.T) {
	current := models.BuildMatrix(
		[]models.StrategyKind{models.KindRSI},
		[]string{"BTCUSDT"},
		[]models.Timeframe{models.TF1h},
	)

	_, err := buildMatrix(configPayload{Timeframes: []string{"7m"}}, current)
	assert.Error(t, err)

	_, err = buildMatrix(configPayload{Strategies: []string{"WRONG"}}, current)
	assert.Error(t, err)

	m, err := buildMatrix(configPayload{Symbols: []string{"SOLUSDT"}}, current)
	require.NoError(t, err)
	assert.Len(t, m[models.KindRSI], 1)
	assert.Equal(t, "SOLUSDT", m[models.KindRSI][0].Symbol)
}
