package book

import (
	"errors"
	"math"
)

// Price is an integer price in the instrument's minimum price unit
// (hundredths of a currency unit).
type Price = int64

// Qty is an order quantity. Zero is never valid on input.
type Qty = int64

// Market price sentinels. A market order is carried through the matching
// path as a limit order priced at the sentinel of its own side. Sentinels
// are rejected as limit prices and hidden from best-price queries.
const (
	MarketBuyPrice  Price = math.MaxInt64
	MarketSellPrice Price = 0
)

type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "BID"
	}
	return "ASK"
}

// Opposite returns the side an aggressor matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// marketPrice is the sentinel encoding "no limit" for the given side.
func marketPrice(s Side) Price {
	if s == Bid {
		return MarketBuyPrice
	}
	return MarketSellPrice
}

// FillStrategy selects the allocation order among resting orders
// within a single price level.
type FillStrategy uint8

const (
	// FillInSequence consumes resting orders in arrival order.
	FillInSequence FillStrategy = iota
	// LowestQtyFirst consumes resting orders ascending by remaining
	// quantity. Equal quantities keep arrival order.
	LowestQtyFirst
	// HighestQtyFirst consumes resting orders descending by remaining
	// quantity. Equal quantities keep arrival order.
	HighestQtyFirst
)

func (f FillStrategy) String() string {
	switch f {
	case FillInSequence:
		return "FILL_IN_SEQ"
	case LowestQtyFirst:
		return "LOWEST_QTY_FIRST"
	case HighestQtyFirst:
		return "HIGHEST_QTY_FIRST"
	default:
		return "UNKNOWN"
	}
}

func (f FillStrategy) valid() bool {
	switch f {
	case FillInSequence, LowestQtyFirst, HighestQtyFirst:
		return true
	default:
		return false
	}
}

var (
	ErrDuplicateOrderID    = errors.New("book: order id already resting at this level")
	ErrInvalidQuantity     = errors.New("book: quantity must be positive")
	ErrInvalidPrice        = errors.New("book: invalid limit price")
	ErrUnknownFillStrategy = errors.New("book: unknown fill strategy")
)
