package book

import (
	"errors"
	"testing"
)

// seedLevel builds a level holding (A,10),(B,40),(C,20),(D,30) in that
// arrival order, totalQty=100.
func seedLevel(t *testing.T, strategy FillStrategy) (*PriceLevel, *statusAccumulator) {
	t.Helper()
	acc := &statusAccumulator{}
	lvl := newPriceLevel(9995, strategy, acc)
	for _, e := range []struct {
		id  string
		qty Qty
	}{{"A", 10}, {"B", 40}, {"C", 20}, {"D", 30}} {
		if err := lvl.Add(e.id, e.qty); err != nil {
			t.Fatalf("add %s: %v", e.id, err)
		}
	}
	if lvl.TotalQty() != 100 || lvl.OrderCount() != 4 {
		t.Fatalf("seed: total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
	return lvl, acc
}

func checkFills(t *testing.T, got []FillEvent, want []FillEvent) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d fills, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fill[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFullSweepFillInSequence(t *testing.T) {
	lvl, acc := seedLevel(t, FillInSequence)

	if filled := lvl.ProvideFill(100, 9995); filled != 100 {
		t.Fatalf("filled=%d", filled)
	}
	checkFills(t, acc.fills, []FillEvent{
		{"A", 9995, 10, true},
		{"B", 9995, 40, true},
		{"C", 9995, 20, true},
		{"D", 9995, 30, true},
	})
	if lvl.TotalQty() != 0 || lvl.OrderCount() != 0 {
		t.Errorf("level not emptied: total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
}

func TestFullSweepLowestQtyFirst(t *testing.T) {
	lvl, acc := seedLevel(t, LowestQtyFirst)

	lvl.ProvideFill(100, 9995)
	checkFills(t, acc.fills, []FillEvent{
		{"A", 9995, 10, true},
		{"C", 9995, 20, true},
		{"D", 9995, 30, true},
		{"B", 9995, 40, true},
	})
}

func TestFullSweepHighestQtyFirst(t *testing.T) {
	lvl, acc := seedLevel(t, HighestQtyFirst)

	lvl.ProvideFill(100, 9995)
	checkFills(t, acc.fills, []FillEvent{
		{"B", 9995, 40, true},
		{"D", 9995, 30, true},
		{"C", 9995, 20, true},
		{"A", 9995, 10, true},
	})
}

func TestPartialFillInSequence(t *testing.T) {
	lvl, acc := seedLevel(t, FillInSequence)

	if filled := lvl.ProvideFill(70, 9995); filled != 70 {
		t.Fatalf("filled=%d", filled)
	}
	checkFills(t, acc.fills, []FillEvent{
		{"A", 9995, 10, true},
		{"B", 9995, 40, true},
		{"C", 9995, 20, true},
	})
	if lvl.TotalQty() != 30 || lvl.OrderCount() != 1 {
		t.Errorf("residue: total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
	if !lvl.contains("D") {
		t.Error("expected D to remain resting")
	}
}

func TestPartialLowestQtyFirst(t *testing.T) {
	lvl, acc := seedLevel(t, LowestQtyFirst)

	lvl.ProvideFill(70, 9995)
	checkFills(t, acc.fills, []FillEvent{
		{"A", 9995, 10, true},
		{"C", 9995, 20, true},
		{"D", 9995, 30, true},
		{"B", 9995, 10, false},
	})
	if lvl.TotalQty() != 30 || lvl.OrderCount() != 1 || !lvl.contains("B") {
		t.Errorf("expected (B,30) to remain, total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
}

func TestPartialHighestQtyFirst(t *testing.T) {
	lvl, acc := seedLevel(t, HighestQtyFirst)

	lvl.ProvideFill(70, 9995)
	checkFills(t, acc.fills, []FillEvent{
		{"B", 9995, 40, true},
		{"D", 9995, 30, true},
	})
	if lvl.TotalQty() != 30 || lvl.OrderCount() != 2 {
		t.Errorf("residue: total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
	if !lvl.contains("A") || !lvl.contains("C") {
		t.Error("expected A and C to remain resting")
	}
}

func TestQtyTieKeepsArrivalOrder(t *testing.T) {
	acc := &statusAccumulator{}
	lvl := newPriceLevel(100, LowestQtyFirst, acc)
	for _, id := range []string{"X", "Y", "Z"} {
		if err := lvl.Add(id, 10); err != nil {
			t.Fatal(err)
		}
	}

	lvl.ProvideFill(30, 100)
	checkFills(t, acc.fills, []FillEvent{
		{"X", 100, 10, true},
		{"Y", 100, 10, true},
		{"Z", 100, 10, true},
	})
}

func TestAddDuplicateOrderID(t *testing.T) {
	lvl, _ := seedLevel(t, FillInSequence)

	err := lvl.Add("B", 5)
	if !errors.Is(err, ErrDuplicateOrderID) {
		t.Fatalf("err=%v, want ErrDuplicateOrderID", err)
	}
	if lvl.TotalQty() != 100 || lvl.OrderCount() != 4 {
		t.Errorf("level changed by failed add: total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
}

func TestProvideFillOverAsk(t *testing.T) {
	lvl, acc := seedLevel(t, FillInSequence)

	// Requesting more than the level holds fills exactly the level total.
	if filled := lvl.ProvideFill(250, 9995); filled != 100 {
		t.Fatalf("filled=%d, want 100", filled)
	}
	for _, f := range acc.fills {
		if !f.LastFill {
			t.Errorf("sweep fill %v should carry lastFill", f)
		}
	}
	if lvl.TotalQty() != 0 {
		t.Errorf("total=%d after sweep", lvl.TotalQty())
	}
}

func TestPartialReduceSingleOrder(t *testing.T) {
	acc := &statusAccumulator{}
	lvl := newPriceLevel(100, FillInSequence, acc)
	if err := lvl.Add("solo", 50); err != nil {
		t.Fatal(err)
	}

	lvl.ProvideFill(20, 100)
	checkFills(t, acc.fills, []FillEvent{{"solo", 100, 20, false}})
	if lvl.TotalQty() != 30 || lvl.OrderCount() != 1 {
		t.Errorf("total=%d count=%d", lvl.TotalQty(), lvl.OrderCount())
	}
}
