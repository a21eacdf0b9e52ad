package book

import "fmt"

// StatusListener receives order lifecycle notifications from the book.
//
// Callbacks are delivered synchronously while a placement is in flight;
// the book is in a transient state at that point and re-entering it from
// a callback is undefined behaviour. Collaborators that want to react
// with further orders must queue them outside the callback.
type StatusListener interface {
	// OrderFilled reports a fill of fillQty at fillPrice. For a resting
	// order lastFill is true when this fill removes the order from its
	// price level; for the aggressor it is true when the incoming order
	// is fully filled.
	OrderFilled(orderID string, fillPrice Price, fillQty Qty, lastFill bool)

	// OrderCancelled is reserved for collaborators. The matching path
	// never invokes it.
	OrderCancelled(orderID string)
}

// FillEvent is the value form of an OrderFilled callback.
type FillEvent struct {
	OrderID  string
	Price    Price
	Qty      Qty
	LastFill bool
}

func (e FillEvent) String() string {
	return fmt.Sprintf("fill{%s %d@%d last=%t}", e.OrderID, e.Qty, e.Price, e.LastFill)
}
