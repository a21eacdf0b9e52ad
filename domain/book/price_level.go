package book

import (
	"fmt"
	"sort"
	"strings"
)

type levelEntry struct {
	orderID string
	qty     Qty
}

// PriceLevel is the bucket of resting orders at one price on one side.
//
// Entries are stored in arrival order; the fill strategy decides the order
// they are consumed in. totalQty caches the sum of remaining quantities so
// TotalQty stays O(1).
type PriceLevel struct {
	price    Price
	strategy FillStrategy
	listener StatusListener

	entries []*levelEntry
	byID    map[string]*levelEntry

	totalQty Qty
}

func newPriceLevel(price Price, strategy FillStrategy, listener StatusListener) *PriceLevel {
	return &PriceLevel{
		price:    price,
		strategy: strategy,
		listener: listener,
		byID:     make(map[string]*levelEntry),
	}
}

func (l *PriceLevel) Price() Price    { return l.price }
func (l *PriceLevel) TotalQty() Qty   { return l.totalQty }
func (l *PriceLevel) OrderCount() int { return len(l.entries) }

func (l *PriceLevel) contains(orderID string) bool {
	_, ok := l.byID[orderID]
	return ok
}

// Add parks a resting order at this level. The order id must not already
// rest here.
func (l *PriceLevel) Add(orderID string, qty Qty) error {
	if _, ok := l.byID[orderID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateOrderID, orderID)
	}
	e := &levelEntry{orderID: orderID, qty: qty}
	l.entries = append(l.entries, e)
	l.byID[orderID] = e
	l.totalQty += qty
	return nil
}

// ProvideFill consumes up to size quantity from the level in fill order
// and returns the quantity actually filled. One OrderFilled callback is
// emitted per affected resting order; lastFill marks the ones whose
// resting order is fully consumed.
func (l *PriceLevel) ProvideFill(size Qty, fillPrice Price) Qty {
	var fill Qty
	if l.totalQty <= size {
		// Whole level is swept: notify in fill order, then clear in one step.
		fill = l.totalQty
		for _, e := range l.fillOrder() {
			l.notify(e.orderID, fillPrice, e.qty, true)
		}
		l.entries = l.entries[:0]
		clear(l.byID)
	} else {
		remaining := size
		for _, e := range l.fillOrder() {
			if e.qty <= remaining {
				q := e.qty
				e.qty = 0
				delete(l.byID, e.orderID)
				remaining -= q
				l.notify(e.orderID, fillPrice, q, true)
			} else {
				e.qty -= remaining
				l.notify(e.orderID, fillPrice, remaining, false)
				remaining = 0
			}
			if remaining == 0 {
				break
			}
		}
		l.compact()
		fill = size
	}
	l.totalQty -= fill
	return fill
}

// fillOrder is the sequence resting orders are consumed in. Arrival order
// for FillInSequence; a stable sort by remaining quantity otherwise, so
// equal quantities are still consumed in arrival order.
func (l *PriceLevel) fillOrder() []*levelEntry {
	seq := make([]*levelEntry, len(l.entries))
	copy(seq, l.entries)
	switch l.strategy {
	case LowestQtyFirst:
		sort.SliceStable(seq, func(i, j int) bool { return seq[i].qty < seq[j].qty })
	case HighestQtyFirst:
		sort.SliceStable(seq, func(i, j int) bool { return seq[i].qty > seq[j].qty })
	}
	return seq
}

// compact drops consumed entries, preserving arrival order of the rest.
func (l *PriceLevel) compact() {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.qty > 0 {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

func (l *PriceLevel) notify(orderID string, fillPrice Price, fillQty Qty, lastFill bool) {
	if l.listener != nil {
		l.listener.OrderFilled(orderID, fillPrice, fillQty, lastFill)
	}
}

// String renders the level as <totalQty>(<id>=<qty>,...) in fill order.
func (l *PriceLevel) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d(", l.totalQty)
	for i, e := range l.fillOrder() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%d", e.orderID, e.qty)
	}
	sb.WriteByte(')')
	return sb.String()
}
