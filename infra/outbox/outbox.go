package outbox

import (
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// Outbox is a durable store of fill events awaiting broadcast. Records
// move NEW -> SENT -> ACKED; the broadcaster replays anything not yet
// acked, so a crash between send and ack results in redelivery, never
// loss.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("outbox: open %s: %w", dir, err)
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Append stores a new record keyed by its sequence number.
func (o *Outbox) Append(rec Record) error {
	rec.State = StateNew
	if rec.UnixNano == 0 {
		rec.UnixNano = time.Now().UnixNano()
	}
	return o.db.Set(keyFor(rec.Seq), Encode(rec), pebble.Sync)
}

// MarkSent transitions a record to SENT. Idempotent.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.setState(seq, StateSent)
}

// MarkAcked transitions a record to ACKED.
func (o *Outbox) MarkAcked(seq uint64) error {
	return o.setState(seq, StateAcked)
}

// Delete removes a record. Used to clean up acked entries.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// Get returns the stored record for seq.
func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return Decode(val)
}

// ScanPending visits every record not yet acked, in sequence order.
func (o *Outbox) ScanPending(fn func(Record) error) error {
	return o.scan(func(rec Record) error {
		if rec.State == StateAcked {
			return nil
		}
		return fn(rec)
	})
}

// LastSeq returns the highest stored sequence, or 0 when empty. The
// service resumes its sequencer from this value.
func (o *Outbox) LastSeq() (uint64, error) {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	rec, err := Decode(iter.Value())
	if err != nil {
		return 0, err
	}
	return rec.Seq, nil
}

func (o *Outbox) setState(seq uint64, state State) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	return o.db.Set(keyFor(seq), Encode(rec), pebble.Sync)
}

func (o *Outbox) scan(fn func(Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := Decode(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

const keyPrefix = "fill/"

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}
