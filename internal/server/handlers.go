package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/quantdesk/screener/internal/broker"
	"github.com/quantdesk/screener/internal/config"
	"github.com/quantdesk/screener/internal/scan"
	"github.com/quantdesk/screener/internal/screener"
	"github.com/quantdesk/screener/internal/signal"
)

type Server struct {
	income  *scan.IncomeScanner
	signals *scan.SignalScanner
	engine  *signal.Engine
	params  signal.Params
	config  *config.Config
	logger  *zap.Logger
}

func NewServer(income *scan.IncomeScanner, signals *scan.SignalScanner, engine *signal.Engine, params signal.Params, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		income:  income,
		signals: signals,
		engine:  engine,
		params:  params,
		config:  cfg,
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"watchlists": len(s.config.Watchlists),
	})
}

func (s *Server) handleWatchlists(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.config.Watchlists))
	for name := range s.config.Watchlists {
		names = append(names, name)
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, map[string]any{
		"watchlists": names,
		"count":      len(names),
	})
}

// handleIncome screens a single ticker. Every query parameter is a
// criteria field; an unknown one is a client error, not a default.
func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	params := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	crit, err := screener.CriteriaFromMap(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.income.Scan(r.Context(), []string{ticker}, crit)
	if err != nil {
		s.writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

type scanIncomeRequest struct {
	Watchlist string            `json:"watchlist"`
	Tickers   []string          `json:"tickers"`
	Params    map[string]string `json:"params"`
}

func (s *Server) handleScanIncome(w http.ResponseWriter, r *http.Request) {
	var req scanIncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tickers := req.Tickers
	if req.Watchlist != "" {
		resolved, ok := s.config.Watchlist(req.Watchlist)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown watchlist: " + req.Watchlist})
			return
		}
		tickers = resolved
	}

	crit, err := screener.CriteriaFromMap(req.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.income.Scan(r.Context(), tickers, crit)
	if err != nil {
		s.writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	analysis, err := s.engine.Analyze(r.Context(), ticker, s.params)
	if err != nil {
		if errors.Is(err, signal.ErrDataUnavailable) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no price data for " + ticker})
			return
		}
		s.writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleScanSignals(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "watchlist")

	tickers, ok := s.config.Watchlist(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown watchlist: " + name})
		return
	}

	direction := scan.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = scan.Buy
	}

	report, err := s.signals.Scan(r.Context(), tickers, direction)
	if err != nil {
		s.writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, screener.ErrInvalidArgument), errors.Is(err, scan.ErrUnknownDirection):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, broker.ErrNoData):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
