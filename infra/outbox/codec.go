package outbox

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrCorruptRecord = errors.New("outbox: corrupted record")

// Field numbers of the stored record. The body is protobuf wire format,
// framed by an 8-byte header: body length and CRC32 (IEEE), both
// little-endian.
const (
	fieldSeq      = 1
	fieldState    = 2
	fieldSymbol   = 3
	fieldOrderID  = 4
	fieldPrice    = 5
	fieldQty      = 6
	fieldLastFill = 7
	fieldUnixNano = 8
)

// Encode serializes a record as a CRC-framed protobuf message.
func Encode(rec Record) []byte {
	var body []byte
	body = protowire.AppendTag(body, fieldSeq, protowire.VarintType)
	body = protowire.AppendVarint(body, rec.Seq)
	body = protowire.AppendTag(body, fieldState, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(rec.State))
	body = protowire.AppendTag(body, fieldSymbol, protowire.BytesType)
	body = protowire.AppendString(body, rec.Symbol)
	body = protowire.AppendTag(body, fieldOrderID, protowire.BytesType)
	body = protowire.AppendString(body, rec.OrderID)
	body = protowire.AppendTag(body, fieldPrice, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(rec.Price))
	body = protowire.AppendTag(body, fieldQty, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(rec.Qty))
	body = protowire.AppendTag(body, fieldLastFill, protowire.VarintType)
	body = protowire.AppendVarint(body, boolVarint(rec.LastFill))
	body = protowire.AppendTag(body, fieldUnixNano, protowire.VarintType)
	body = protowire.AppendVarint(body, uint64(rec.UnixNano))

	out := make([]byte, 8, 8+len(body))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(out[4:8], crc32.ChecksumIEEE(body))
	return append(out, body...)
}

// Decode parses a CRC-framed record, rejecting truncated or corrupted
// payloads.
func Decode(data []byte) (Record, error) {
	if len(data) < 8 {
		return Record{}, ErrCorruptRecord
	}
	body := data[8:]
	if uint32(len(body)) != binary.LittleEndian.Uint32(data[:4]) {
		return Record{}, ErrCorruptRecord
	}
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(data[4:8]) {
		return Record{}, ErrCorruptRecord
	}

	var rec Record
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return Record{}, ErrCorruptRecord
		}
		body = body[n:]

		switch {
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(body)
			if n < 0 {
				return Record{}, ErrCorruptRecord
			}
			body = body[n:]
			switch num {
			case fieldSeq:
				rec.Seq = v
			case fieldState:
				rec.State = State(v)
			case fieldPrice:
				rec.Price = int64(v)
			case fieldQty:
				rec.Qty = int64(v)
			case fieldLastFill:
				rec.LastFill = v != 0
			case fieldUnixNano:
				rec.UnixNano = int64(v)
			}
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(body)
			if n < 0 {
				return Record{}, ErrCorruptRecord
			}
			body = body[n:]
			switch num {
			case fieldSymbol:
				rec.Symbol = string(v)
			case fieldOrderID:
				rec.OrderID = string(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return Record{}, ErrCorruptRecord
			}
			body = body[n:]
		}
	}
	return rec, nil
}

func boolVarint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
