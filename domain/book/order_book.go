package book

import (
	"fmt"
	"strings"
)

// OrderBook is the matching engine for a single symbol.
//
// It is an owned, single-writer object: at most one caller at a time may
// invoke a mutating operation, and listener callbacks must not re-enter
// the book. Bids iterate highest price first, asks lowest first.
type OrderBook struct {
	symbol   string
	listener StatusListener
	strategy FillStrategy

	bids *sideTree
	asks *sideTree
}

// New creates a book with the FillInSequence allocation strategy.
// listener may be nil.
func New(symbol string, listener StatusListener) *OrderBook {
	b, _ := NewWithStrategy(symbol, listener, FillInSequence)
	return b
}

// NewWithStrategy creates a book with an explicit per-level allocation
// strategy. The strategy is fixed for the life of the book and applies to
// every level on both sides.
func NewWithStrategy(symbol string, listener StatusListener, strategy FillStrategy) (*OrderBook, error) {
	if !strategy.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFillStrategy, strategy)
	}
	return &OrderBook{
		symbol:   symbol,
		listener: listener,
		strategy: strategy,
		bids:     newSideTree(),
		asks:     newSideTree(),
	}, nil
}

func (b *OrderBook) Symbol() string { return b.symbol }

// PlaceLimitOrder matches the order against crossing opposite-side levels
// and rests any residual quantity at price. It returns true when at least
// one level was touched. price must not be a market sentinel.
func (b *OrderBook) PlaceLimitOrder(orderID string, side Side, qty Qty, price Price) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if price < 0 || price == MarketBuyPrice || price == MarketSellPrice {
		return false, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	return b.place(orderID, side, qty, price, false)
}

// PlaceMarketOrder matches the order at the synthetic sentinel price of
// its side, crossing every opposite-side level including resting market
// tails. An unfilled residue is parked at the sentinel and is only
// consumable by a future opposite-side market order.
func (b *OrderBook) PlaceMarketOrder(orderID string, side Side, qty Qty) (bool, error) {
	if qty <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	return b.place(orderID, side, qty, marketPrice(side), true)
}

func (b *OrderBook) place(orderID string, side Side, qty Qty, limit Price, allowMarketFills bool) (bool, error) {
	// Reject a duplicate id at the resting price before matching starts,
	// so a failed placement leaves no observable effect.
	if lvl := b.sideFor(side).find(limit); lvl != nil && lvl.contains(orderID) {
		return false, fmt.Errorf("%w: %q", ErrDuplicateOrderID, orderID)
	}

	window := b.matchingWindow(side, limit)

	// Limit orders never trade against a resting market tail. The tail,
	// when present, sorts first on its side, so only the leading level
	// can carry the sentinel.
	if !allowMarketFills && len(window) > 0 && window[0].Price() == marketPrice(side.Opposite()) {
		window = window[1:]
	}

	if len(window) == 0 {
		return false, b.rest(orderID, side, qty, limit)
	}

	opposite := b.sideFor(side.Opposite())
	toFill := qty
	for _, lvl := range window {
		if toFill == 0 {
			break
		}
		fillPrice := lvl.Price()
		filled := lvl.ProvideFill(toFill, fillPrice)
		toFill -= filled
		if lvl.TotalQty() == 0 {
			opposite.delete(fillPrice)
		}
		if b.listener != nil {
			b.listener.OrderFilled(orderID, fillPrice, filled, toFill == 0)
		}
	}

	if toFill > 0 {
		return true, b.rest(orderID, side, toFill, limit)
	}
	return true, nil
}

// matchingWindow snapshots the opposite-side levels crossable with limit,
// best price first.
func (b *OrderBook) matchingWindow(side Side, limit Price) []*PriceLevel {
	var window []*PriceLevel
	if side == Bid {
		b.asks.ascend(func(lvl *PriceLevel) bool {
			if lvl.Price() > limit {
				return false
			}
			window = append(window, lvl)
			return true
		})
	} else {
		b.bids.descend(func(lvl *PriceLevel) bool {
			if lvl.Price() < limit {
				return false
			}
			window = append(window, lvl)
			return true
		})
	}
	return window
}

func (b *OrderBook) rest(orderID string, side Side, qty Qty, price Price) error {
	tree := b.sideFor(side)
	lvl := tree.getOrCreate(price, b.newLevel)
	if err := lvl.Add(orderID, qty); err != nil {
		if lvl.OrderCount() == 0 {
			tree.delete(price)
		}
		return err
	}
	return nil
}

func (b *OrderBook) newLevel(price Price) *PriceLevel {
	return newPriceLevel(price, b.strategy, b.listener)
}

func (b *OrderBook) sideFor(side Side) *sideTree {
	if side == Bid {
		return b.bids
	}
	return b.asks
}

// BestBid returns the highest resting bid price. A market tail parked at
// the buy sentinel is hidden.
func (b *OrderBook) BestBid() (Price, bool) {
	lvl := b.bids.max()
	if lvl == nil || lvl.Price() == MarketBuyPrice {
		return 0, false
	}
	return lvl.Price(), true
}

// BestAsk returns the lowest resting ask price. A market tail parked at
// the sell sentinel is hidden.
func (b *OrderBook) BestAsk() (Price, bool) {
	lvl := b.asks.min()
	if lvl == nil || lvl.Price() == MarketSellPrice {
		return 0, false
	}
	return lvl.Price(), true
}

// Render produces a two-column diagnostic listing of the book, bids and
// asks in best-price-first order. The format is advisory only.
func (b *OrderBook) Render() string {
	bidRows := renderSide(b.bids.descend, Bid)
	askRows := renderSide(b.asks.ascend, Ask)
	for len(bidRows) < len(askRows) {
		bidRows = append(bidRows, "")
	}
	for len(askRows) < len(bidRows) {
		askRows = append(askRows, "")
	}

	sideLen := 3
	for i := range bidRows {
		sideLen = max(sideLen, max(len(bidRows[i]), len(askRows[i])))
	}
	lineLen := 2 + sideLen*2
	rule := strings.Repeat("-", lineLen)

	var sb strings.Builder
	fmt.Fprintf(&sb, "OrderBook for [%s]:\n", b.symbol)
	sb.WriteString(rule)
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "%-*s  %-*s\n", sideLen, "BID", sideLen, "ASK")
	sb.WriteString(rule)
	sb.WriteByte('\n')
	for i := range bidRows {
		fmt.Fprintf(&sb, "%-*s  %-*s\n", sideLen, bidRows[i], sideLen, askRows[i])
	}
	sb.WriteString(rule)
	sb.WriteByte('\n')
	return sb.String()
}

func renderSide(walk func(func(*PriceLevel) bool), side Side) []string {
	var rows []string
	walk(func(lvl *PriceLevel) bool {
		rows = append(rows, fmt.Sprintf("%s,%s", renderPrice(side, lvl.Price()), lvl))
		return true
	})
	return rows
}

func renderPrice(side Side, p Price) string {
	if p == marketPrice(side) {
		return "MP"
	}
	return fmt.Sprintf("%.2f", float64(p)/100)
}
