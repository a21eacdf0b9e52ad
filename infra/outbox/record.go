package outbox

// State tracks a fill record through the publish pipeline.
type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

// Record is one durable fill event awaiting broadcast.
type Record struct {
	Seq      uint64
	State    State
	Symbol   string
	OrderID  string
	Price    int64
	Qty      int64
	LastFill bool
	UnixNano int64
}
