package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"matchbook/domain/book"
	"matchbook/infra/feed"
	"matchbook/infra/metrics"
	"matchbook/infra/outbox"
	"matchbook/infra/sequence"
)

/*
OrderService is the only write entry point into the engine.

The book is an owned, single-writer object; the service serializes all
mutating calls behind a mutex and attaches its own listener, so observer
callbacks can never re-enter the book. Fills are published to the outbox
and the tape only after the placement has fully completed.
*/
type OrderService struct {
	mu sync.Mutex

	book *book.OrderBook
	acc  *fillAccumulator
	seq  *sequence.Sequencer

	outbox *outbox.Outbox // optional
	tape   feed.Publisher // optional

	log zerolog.Logger
}

// fillAccumulator buffers listener callbacks for one placement.
type fillAccumulator struct {
	fills []book.FillEvent
}

func (a *fillAccumulator) OrderFilled(orderID string, price book.Price, qty book.Qty, lastFill bool) {
	a.fills = append(a.fills, book.FillEvent{OrderID: orderID, Price: price, Qty: qty, LastFill: lastFill})
}

func (a *fillAccumulator) OrderCancelled(string) {}

func (a *fillAccumulator) take() []book.FillEvent {
	fills := a.fills
	a.fills = nil
	return fills
}

// Options carries the optional collaborators of the service.
type Options struct {
	Outbox *outbox.Outbox
	Tape   feed.Publisher
	Logger zerolog.Logger
}

// NewOrderService wires the engine. The sequencer resumes from the
// outbox's highest stored sequence when one is configured.
func NewOrderService(symbol string, strategy book.FillStrategy, opts Options) (*OrderService, error) {
	acc := &fillAccumulator{}
	b, err := book.NewWithStrategy(symbol, acc, strategy)
	if err != nil {
		return nil, err
	}

	var start uint64
	if opts.Outbox != nil {
		if start, err = opts.Outbox.LastSeq(); err != nil {
			return nil, err
		}
	}

	return &OrderService{
		book:   b,
		acc:    acc,
		seq:    sequence.New(start),
		outbox: opts.Outbox,
		tape:   opts.Tape,
		log:    opts.Logger,
	}, nil
}

// PlacementResult reports the outcome of one placement.
type PlacementResult struct {
	Matched bool
	Fills   []book.FillEvent
}

// PlaceLimit submits a limit order.
func (s *OrderService) PlaceLimit(ctx context.Context, orderID string, side book.Side, qty book.Qty, price book.Price) (PlacementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acc.fills = nil
	matched, err := s.book.PlaceLimitOrder(orderID, side, qty, price)
	if err != nil {
		metrics.OrdersRejectedTotal.Inc()
		s.log.Debug().Err(err).Str("order_id", orderID).Msg("limit order rejected")
		return PlacementResult{}, err
	}
	res := s.finishPlacement(ctx, orderID, "limit", side, matched)
	return res, nil
}

// PlaceMarket submits a market order.
func (s *OrderService) PlaceMarket(ctx context.Context, orderID string, side book.Side, qty book.Qty) (PlacementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.acc.fills = nil
	matched, err := s.book.PlaceMarketOrder(orderID, side, qty)
	if err != nil {
		metrics.OrdersRejectedTotal.Inc()
		s.log.Debug().Err(err).Str("order_id", orderID).Msg("market order rejected")
		return PlacementResult{}, err
	}
	res := s.finishPlacement(ctx, orderID, "market", side, matched)
	return res, nil
}

func (s *OrderService) finishPlacement(ctx context.Context, orderID, otype string, side book.Side, matched bool) PlacementResult {
	fills := s.acc.take()

	metrics.OrdersPlacedTotal.WithLabelValues(otype, side.String()).Inc()
	if matched {
		metrics.OrdersMatchedTotal.Inc()
	}

	now := time.Now().UnixNano()
	for _, f := range fills {
		metrics.FillsEmittedTotal.Inc()
		metrics.FillVolumeTotal.Add(float64(f.Qty))

		seq := s.seq.Next()
		if s.outbox != nil {
			rec := outbox.Record{
				Seq:      seq,
				Symbol:   s.book.Symbol(),
				OrderID:  f.OrderID,
				Price:    f.Price,
				Qty:      f.Qty,
				LastFill: f.LastFill,
				UnixNano: now,
			}
			if err := s.outbox.Append(rec); err != nil {
				s.log.Error().Err(err).Uint64("seq", seq).Msg("outbox append failed")
			} else {
				metrics.OutboxWritesTotal.Inc()
			}
		}
		if s.tape != nil {
			msg := feed.TapeMessage{
				Seq:      seq,
				Symbol:   s.book.Symbol(),
				OrderID:  f.OrderID,
				Price:    f.Price,
				Qty:      f.Qty,
				LastFill: f.LastFill,
				UnixNano: now,
			}
			if err := s.tape.PublishFill(ctx, msg); err != nil {
				metrics.TapePublishErrorsTotal.Inc()
				s.log.Warn().Err(err).Uint64("seq", seq).Msg("tape publish failed")
			}
		}
	}

	s.log.Info().
		Str("order_id", orderID).
		Str("type", otype).
		Str("side", side.String()).
		Bool("matched", matched).
		Int("fills", len(fills)).
		Msg("order placed")

	return PlacementResult{Matched: matched, Fills: fills}
}

// BestBid returns the highest visible resting bid price.
func (s *OrderService) BestBid() (book.Price, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BestBid()
}

// BestAsk returns the lowest visible resting ask price.
func (s *OrderService) BestAsk() (book.Price, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.BestAsk()
}

// RenderBook returns the diagnostic book listing.
func (s *OrderService) RenderBook() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Render()
}

// Symbol is the instrument managed by this service.
func (s *OrderService) Symbol() string {
	return s.book.Symbol()
}
