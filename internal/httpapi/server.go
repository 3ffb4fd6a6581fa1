package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"stockalert/internal/alert"
	"stockalert/internal/indicator"
	"stockalert/internal/optimize"
	"stockalert/internal/provider"
	"stockalert/internal/store"
	"stockalert/internal/strategy"
)

// OptimizeDefaults are the configured grid search parameters; request bodies
// may override any of them per call.
type OptimizeDefaults struct {
	Buy             optimize.Range
	Sell            optimize.Range
	StartingCapital float64
	Workers         int
}

// Server serves the trigger, dashboard, and optimizer endpoints.
type Server struct {
	ticker       string
	historyYears int
	indicators   indicator.Config
	defaults     OptimizeDefaults

	alerter  *alert.Alerter
	provider provider.BarProvider
	exports  *store.ParquetStore // nil disables artifact export
	runs     store.RunStore      // nil disables run persistence

	log *slog.Logger
	now func() time.Time
}

// NewServer creates the API server. exports and runs may be nil when the
// corresponding persistence is not configured.
func NewServer(
	ticker string,
	historyYears int,
	ind indicator.Config,
	defaults OptimizeDefaults,
	alerter *alert.Alerter,
	barProvider provider.BarProvider,
	exports *store.ParquetStore,
	runs store.RunStore,
) *Server {
	return &Server{
		ticker:       ticker,
		historyYears: historyYears,
		indicators:   ind,
		defaults:     defaults,
		alerter:      alerter,
		provider:     barProvider,
		exports:      exports,
		runs:         runs,
		log:          slog.Default().With("component", "httpapi"),
		now:          time.Now,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /run", s.handleRun)
	mux.HandleFunc("POST /run", s.handleRun)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleRun is the cron hook: one full alert cycle, or a skip on non-trading
// days.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	out, err := s.alerter.Run(r.Context(), now)
	if err != nil {
		s.log.Error("alert run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := RunResponse{Date: now.Format("2006-01-02"), Skipped: out.Skipped}
	if out.Skipped {
		resp.Reason = "market closed"
	} else {
		resp.Dashboard = convertDashboard(out.Metrics)
	}
	writeJSON(w, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	m, err := s.alerter.Snapshot(r.Context(), s.now())
	if err != nil {
		if errors.Is(err, alert.ErrNoRows) {
			writeError(w, http.StatusNotFound, "no indicator data")
			return
		}
		s.log.Error("dashboard snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, convertDashboard(m))
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var body OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req := optimize.Request{
		Buy:             s.defaults.Buy,
		Sell:            s.defaults.Sell,
		ReturnWindow:    s.indicators.ReturnWindow,
		StartingCapital: s.defaults.StartingCapital,
		Workers:         s.defaults.Workers,
	}
	if body.Buy != nil {
		req.Buy = optimize.Range{Start: body.Buy.Start, Stop: body.Buy.Stop, Step: body.Buy.Step}
	}
	if body.Sell != nil {
		req.Sell = optimize.Range{Start: body.Sell.Start, Stop: body.Sell.Stop, Step: body.Sell.Step}
	}
	if body.StartingCapital > 0 {
		req.StartingCapital = body.StartingCapital
	}
	if body.Workers > 0 {
		req.Workers = body.Workers
	}

	ctx := r.Context()
	now := s.now()
	bars, err := s.provider.DailyBars(ctx, s.ticker, now.AddDate(-s.historyYears, 0, 0), now)
	if err != nil {
		s.log.Error("history fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	rows, err := indicator.Compute(bars, s.indicators)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	best, points, err := optimize.Search(rows, req)
	if err != nil {
		if errors.Is(err, optimize.ErrEmptyGrid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("grid search failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hold, err := strategy.BuyAndHold(rows, req.StartingCapital)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := OptimizeResponse{
		Ticker:             s.ticker,
		BuyThreshold:       best.Params.BuyThreshold,
		SellThreshold:      best.Params.SellThreshold,
		ReturnWindow:       best.Params.ReturnWindow,
		StartingCapital:    best.Params.StartingCapital,
		TerminalValue:      best.TerminalValue,
		BuyAndHoldTerminal: hold.TerminalValue,
		Trades:             convertTrades(best.Trades),
		EquityPoints:       len(best.EquityCurve),
		Grid:               convertGrid(points),
	}

	if s.runs != nil {
		id, err := s.runs.SaveRun(ctx, s.ticker, now, best)
		if err != nil {
			s.log.Error("persisting run failed", "error", err)
		} else {
			resp.RunID = id
		}
	}
	if s.exports != nil {
		dir, err := s.exports.ExportResult(s.ticker, now, best)
		if err != nil {
			s.log.Error("exporting run artifacts failed", "error", err)
		} else {
			resp.ArtifactsDir = dir
		}
	}

	s.log.Info("grid search complete",
		"ticker", s.ticker,
		"buy", best.Params.BuyThreshold,
		"sell", best.Params.SellThreshold,
		"terminal", best.TerminalValue,
		"points", len(points),
	)
	writeJSON(w, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.runs.ListRuns(r.Context(), s.ticker, limit)
	if err != nil {
		s.log.Error("listing runs failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, convertRuns(s.ticker, records))
}
