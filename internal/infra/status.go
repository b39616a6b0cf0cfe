package infra

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"profit_go/internal/domain"

	"github.com/gorilla/mux"
)

// IntentLister reads back recorded trade intents, newest first.
type IntentLister interface {
	ListIntents(ctx context.Context, limit int) ([]domain.TradeIntent, error)
}

// TokenLister lists the known token metadata.
type TokenLister interface {
	All() []domain.TokenInfo
}

// StatusServer exposes liveness and metrics over HTTP.
type StatusServer struct {
	addr    string
	metrics *Metrics
	intents IntentLister
	tokens  TokenLister
	orders  domain.OrderCanceller
	router  *mux.Router
	server  *http.Server
	started time.Time
	logger  *slog.Logger
}

// StatusOption adds optional routes to a StatusServer.
type StatusOption func(*StatusServer)

// WithIntents serves GET /intents from l.
func WithIntents(l IntentLister) StatusOption {
	return func(s *StatusServer) { s.intents = l }
}

// WithTokens serves GET /tokens from l.
func WithTokens(l TokenLister) StatusOption {
	return func(s *StatusServer) { s.tokens = l }
}

// WithCanceller serves DELETE /orders/{id} through c.
func WithCanceller(c domain.OrderCanceller) StatusOption {
	return func(s *StatusServer) { s.orders = c }
}

// NewStatusServer creates a status server bound to addr.
func NewStatusServer(addr string, metrics *Metrics, opts ...StatusOption) *StatusServer {
	s := &StatusServer{
		addr:    addr,
		metrics: metrics,
		router:  mux.NewRouter(),
		started: time.Now(),
		logger:  slog.Default().With("module", "status"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

func (s *StatusServer) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	if s.intents != nil {
		s.router.HandleFunc("/intents", s.handleIntents).Methods(http.MethodGet)
	}
	if s.tokens != nil {
		s.router.HandleFunc("/tokens", s.handleTokens).Methods(http.MethodGet)
	}
	if s.orders != nil {
		s.router.HandleFunc("/orders/{id}", s.handleCancelOrder).Methods(http.MethodDelete)
	}
}

// Handler returns the router (used by tests).
func (s *StatusServer) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled.
func (s *StatusServer) Start(ctx context.Context) {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	go func() {
		s.logger.Info("Status server started", slog.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server failed", slog.Any("error", err))
		}
	}()
}

func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.metrics.Snapshot()
	state := "running"
	if snap.Recovering {
		state = "recovering"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"state":          state,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"last_cycle_at":  snap.LastCycleAt,
	})
}

func (s *StatusServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *StatusServer) handleIntents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	intents, err := s.intents.ListIntents(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list intents", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "ledger unavailable"})
		return
	}
	if intents == nil {
		intents = []domain.TradeIntent{}
	}
	writeJSON(w, http.StatusOK, intents)
}

func (s *StatusServer) handleTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tokens.All())
}

func (s *StatusServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.orders.CancelOrder(r.Context(), id)
	switch {
	case err == nil:
		s.logger.Info("Order cancelled via status API", slog.String("order", id))
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "order": id})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrRejected):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		s.logger.Error("Failed to cancel order", slog.String("order", id), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cancel failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
