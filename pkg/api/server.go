package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/openvenue/matchbook/pkg/app/core"
	"github.com/openvenue/matchbook/pkg/app/venue"
)

// Server exposes the venue core over REST and WebSocket. It is a thin
// collaborator: validation and matching live in the venue App.
type Server struct {
	app    *venue.App
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

// NewServer wires routes over the app and broadcast hub.
func NewServer(app *venue.App, hub *Hub, log *zap.SugaredLogger) *Server {
	s := &Server{
		app:    app,
		router: mux.NewRouter(),
		hub:    hub,
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Market endpoints
	api.HandleFunc("/markets", s.handleGetMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")

	// Order submission
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub loop and serves HTTP on addr. Blocks.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})
	handler := c.Handler(s.router)

	s.log.Infow("api_listening", "addr", addr)
	return http.ListenAndServe(addr, handler)
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetMarkets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.app.ListMarkets())
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	snap, err := s.app.GetSnapshot(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, core.ErrUnknownInstrument) {
			respondError(w, http.StatusNotFound, "orderbook not found", symbol)
			return
		}
		respondError(w, http.StatusInternalServerError, "snapshot failed", err.Error())
		return
	}

	respondJSON(w, SnapshotResponse{
		Symbol:    symbol,
		Bids:      snap.Bids,
		Asks:      snap.Asks,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := core.ParseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	accepted, trades, err := s.app.Submit(req.Symbol, side, req.Price, req.Quantity, req.Owner)
	if err != nil {
		var verr *core.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, "validation failed", verr.Error())
		case errors.Is(err, core.ErrUnknownInstrument):
			respondError(w, http.StatusNotFound, "unknown instrument", req.Symbol)
		default:
			respondError(w, http.StatusInternalServerError, "submit failed", err.Error())
		}
		return
	}

	if trades == nil {
		trades = []core.Trade{}
	}
	respondJSON(w, SubmitOrderResponse{
		OrderID:   accepted.ID,
		Status:    accepted.Status(),
		Remaining: accepted.Remaining,
		Trades:    trades,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helper Functions
// ==============================

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
