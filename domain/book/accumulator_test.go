package book

// statusAccumulator records listener callbacks for assertions.
type statusAccumulator struct {
	fills   []FillEvent
	cancels []string
}

func (a *statusAccumulator) OrderFilled(orderID string, fillPrice Price, fillQty Qty, lastFill bool) {
	a.fills = append(a.fills, FillEvent{OrderID: orderID, Price: fillPrice, Qty: fillQty, LastFill: lastFill})
}

func (a *statusAccumulator) OrderCancelled(orderID string) {
	a.cancels = append(a.cancels, orderID)
}

func (a *statusAccumulator) reset() {
	a.fills = nil
	a.cancels = nil
}
