package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"matchbook/domain/book"
	"matchbook/infra/feed"
	"matchbook/infra/metrics"
	"matchbook/service"
)

// Server exposes the order entry and market data surface over HTTP and
// websockets.
type Server struct {
	svc      *service.OrderService
	tape     *hub[feed.TapeMessage]
	upgrader websocket.Upgrader
	registry *prometheus.Registry
	log      zerolog.Logger
}

func New(svc *service.OrderService, registry *prometheus.Registry, logger zerolog.Logger) *Server {
	return &Server{
		svc:      svc,
		tape:     newHub[feed.TapeMessage](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		registry: registry,
		log:      logger,
	}
}

type orderRequest struct {
	ID    string `json:"id"`
	Side  string `json:"side"`
	Type  string `json:"type"`
	Price int64  `json:"price"`
	Qty   int64  `json:"qty"`
}

type orderResponse struct {
	OrderID string     `json:"order_id"`
	Matched bool       `json:"matched"`
	Fills   []fillView `json:"fills"`
}

type fillView struct {
	OrderID  string `json:"order_id"`
	Price    int64  `json:"price"`
	Qty      int64  `json:"qty"`
	LastFill bool   `json:"last_fill"`
}

type quoteResponse struct {
	Symbol  string `json:"symbol"`
	BestBid *int64 `json:"best_bid,omitempty"`
	BestAsk *int64 `json:"best_ask,omitempty"`
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", s.handleOrder)
	mux.HandleFunc("GET /book", s.handleBook)
	mux.HandleFunc("GET /quote", s.handleQuote)
	mux.HandleFunc("GET /ws/tape", s.handleTapeStream)
	mux.Handle("GET /metrics", metrics.Handler(s.registry))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	var side book.Side
	switch req.Side {
	case "buy", "bid":
		side = book.Bid
	case "sell", "ask":
		side = book.Ask
	default:
		httpError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}

	var (
		res service.PlacementResult
		err error
	)
	switch req.Type {
	case "limit", "":
		res, err = s.svc.PlaceLimit(r.Context(), req.ID, side, req.Qty, req.Price)
	case "market":
		res, err = s.svc.PlaceMarket(r.Context(), req.ID, side, req.Qty)
	default:
		httpError(w, http.StatusBadRequest, "type must be limit or market")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, book.ErrDuplicateOrderID):
			httpError(w, http.StatusConflict, err.Error())
		case errors.Is(err, book.ErrInvalidQuantity), errors.Is(err, book.ErrInvalidPrice):
			httpError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error().Err(err).Msg("placement failed")
			httpError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := orderResponse{OrderID: req.ID, Matched: res.Matched, Fills: make([]fillView, 0, len(res.Fills))}
	for _, f := range res.Fills {
		resp.Fills = append(resp.Fills, fillView{OrderID: f.OrderID, Price: f.Price, Qty: f.Qty, LastFill: f.LastFill})
		s.tape.broadcast(feed.TapeMessage{
			Symbol:   s.svc.Symbol(),
			OrderID:  f.OrderID,
			Price:    f.Price,
			Qty:      f.Qty,
			LastFill: f.LastFill,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBook(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.svc.RenderBook()))
}

func (s *Server) handleQuote(w http.ResponseWriter, _ *http.Request) {
	resp := quoteResponse{Symbol: s.svc.Symbol()}
	if bid, ok := s.svc.BestBid(); ok {
		resp.BestBid = &bid
	}
	if ask, ok := s.svc.BestAsk(); ok {
		resp.BestAsk = &ask
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTapeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.tape.subscribe(64)
	defer s.tape.unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
