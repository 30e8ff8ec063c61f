package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"signal_portal/internal/models"
	"signal_portal/internal/modules/config"
	enginesvc "signal_portal/internal/modules/engine/service"
	historysvc "signal_portal/internal/modules/history/service"
	hubsvc "signal_portal/internal/modules/hub/service"
	"signal_portal/pkg/logger"
)

// MarketSource serves on-demand market lookups for the REST surface.
type MarketSource interface {
	GetTicker(ctx context.Context, symbol string) (models.Ticker, error)
}

// Server is the public HTTP surface: REST control plane plus the live
// websocket feed.
type Server struct {
	engine  *enginesvc.Engine
	hub     *hubsvc.Hub
	history *historysvc.History
	market  MarketSource

	srv      *http.Server
	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, eng *enginesvc.Engine, h *hubsvc.Hub, hist *historysvc.History, market MarketSource) *Server {
	s := &Server{
		engine:  eng,
		hub:     h,
		history: hist,
		market:  market,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/signals", s.handleWS)
	mux.HandleFunc("/api/signals/recent", s.handleRecent)
	mux.HandleFunc("/api/engine/start", s.handleEngineStart)
	mux.HandleFunc("/api/engine/stop", s.handleEngineStop)
	mux.HandleFunc("/api/engine/status", s.handleEngineStatus)
	mux.HandleFunc("/api/engine/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/market/ticker", s.handleTicker)

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() {
	go func() {
		logger.Info("http server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleTicker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	t, err := s.market.GetTicker(r.Context(), symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	f := parseFilter(r.URL.Query())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if s.history != nil {
		signals, err := s.history.Recent(r.Context(), f, limit)
		if err == nil {
			if signals == nil {
				signals = []models.Signal{}
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"signals": signals})
			return
		}
		logger.Error("history recent: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"signals": s.hub.Recent(f, limit)})
}

func (s *Server) handleEngineStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if err := s.engine.Start(r.Context()); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if err := s.engine.Stop(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Status())
}

// handleAnalyze runs one scan cycle on demand and returns what it emitted.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	sub := s.hub.Subscribe(models.Filter{})
	emitted, err := s.engine.RunCycle(r.Context())

	signals := make([]models.Signal, 0, emitted)
drain:
	for {
		select {
		case sig := <-sub.C():
			signals = append(signals, sig)
		default:
			break drain
		}
	}
	s.hub.Unsubscribe(sub.ID)

	resp := map[string]interface{}{
		"emitted": emitted,
		"signals": signals,
	}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// configPayload is the read/update shape for /api/config.
type configPayload struct {
	Strategy   models.StrategyConfig `json:"strategy"`
	Symbols    []string              `json:"symbols,omitempty"`
	Timeframes []string              `json:"timeframes,omitempty"`
	Strategies []string              `json:"strategies,omitempty"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, configPayload{Strategy: s.engine.StrategyConfig()})
	case http.MethodPut:
		s.handlePutConfig(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or PUT")
	}
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	var payload configPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "decode: "+err.Error())
		return
	}

	if err := s.engine.UpdateStrategyConfig(r.Context(), payload.Strategy); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(payload.Symbols) > 0 || len(payload.Timeframes) > 0 || len(payload.Strategies) > 0 {
		matrix, err := buildMatrix(payload, s.engine.Matrix())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.engine.SetMatrix(matrix)
	}

	writeJSON(w, http.StatusOK, configPayload{Strategy: s.engine.StrategyConfig()})
}

// buildMatrix rebuilds the watch matrix from the payload, falling back to
// the dimensions the current matrix already has when a list is omitted.
func buildMatrix(p configPayload, current models.ActiveMatrix) (models.ActiveMatrix, error) {
	kinds := make([]models.StrategyKind, 0, len(p.Strategies))
	for _, s := range p.Strategies {
		k := models.StrategyKind(s)
		if !k.Valid() {
			return nil, fmt.Errorf("unknown strategy %q", s)
		}
		kinds = append(kinds, k)
	}
	tfs := make([]models.Timeframe, 0, len(p.Timeframes))
	for _, t := range p.Timeframes {
		tf := models.Timeframe(t)
		if !tf.Valid() {
			return nil, fmt.Errorf("unknown timeframe %q", t)
		}
		tfs = append(tfs, tf)
	}
	symbols := p.Symbols

	if len(kinds) == 0 {
		for k := range current {
			kinds = append(kinds, k)
		}
	}
	if len(tfs) == 0 || len(symbols) == 0 {
		seenTF := map[models.Timeframe]bool{}
		seenSym := map[string]bool{}
		for _, pair := range current.Pairs() {
			if len(tfs) == 0 && !seenTF[pair.Timeframe] {
				seenTF[pair.Timeframe] = true
				tfs = append(tfs, pair.Timeframe)
			}
			if len(symbols) == 0 && !seenSym[pair.Symbol] {
				seenSym[pair.Symbol] = true
				symbols = append(symbols, pair.Symbol)
			}
		}
	}
	return models.BuildMatrix(kinds, symbols, tfs), nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFilter(q url.Values) models.Filter {
	var f models.Filter
	for _, s := range splitCSV(q.Get("symbols")) {
		f.Symbols = append(f.Symbols, s)
	}
	for _, t := range splitCSV(q.Get("timeframes")) {
		f.Timeframes = append(f.Timeframes, models.Timeframe(t))
	}
	for _, s := range splitCSV(q.Get("strategies")) {
		f.Strategies = append(f.Strategies, models.StrategyKind(s))
	}
	return f
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
