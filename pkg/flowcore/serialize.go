package flowcore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ============================================================================
// WIRE FORMAT — fixed byte layout for Tuple and Punctuation
//
// Tuple wire format:
//   [1 byte  ] element discriminator (elementKindTuple)
//   [8 bytes ] timestamp, int64 LE, microseconds since epoch
//   [4 bytes ] arity, uint32 LE
//   for each attribute, in order:
//     [1 byte ] type tag
//     [payload] type-specific, little-endian, strings length-prefixed
//   [ceil(arity/8) bytes] null bitmap, bit i set => attribute i is null
//
// Punctuation wire format:
//   [1 byte  ] element discriminator (elementKindPunctuation)
//   [1 byte  ] PunctuationKind
//   [8 bytes ] timestamp, int64 LE
//   [8 bytes ] TxID, uint64 LE (zero unless kind is TxBegin/TxCommit)
// ============================================================================

type elementKind uint8

const (
	elementKindTuple elementKind = iota
	elementKindPunctuation
)

type typeTag uint8

const (
	tagInt64 typeTag = iota
	tagFloat64
	tagString
	tagBool
)

// EncodeTuple returns t's wire representation. Only int64-convertible
// ints, float64, string, and bool attributes are supported; anything else
// returns ErrSchemaMismatch.
func EncodeTuple(t *Tuple) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(elementKindTuple))

	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(t.timestamp))
	buf.Write(hdr[:])

	var arity [4]byte
	binary.LittleEndian.PutUint32(arity[:], uint32(len(t.attrs)))
	buf.Write(arity[:])

	for i, v := range t.attrs {
		if t.nullBits[i] {
			buf.WriteByte(byte(tagInt64))
			var z [8]byte
			buf.Write(z[:])
			continue
		}
		if err := encodeValue(&buf, v); err != nil {
			return nil, fmt.Errorf("flowcore: attribute %d: %w", i, err)
		}
	}

	nullBytes := make([]byte, (len(t.nullBits)+7)/8)
	for i, n := range t.nullBits {
		if n {
			nullBytes[i/8] |= 1 << uint(i%8)
		}
	}
	buf.Write(nullBytes)

	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case int:
		buf.WriteByte(byte(tagInt64))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(int64(x)))
		buf.Write(b[:])
	case int64:
		buf.WriteByte(byte(tagInt64))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(x))
		buf.Write(b[:])
	case float64:
		buf.WriteByte(byte(tagFloat64))
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(x))
		buf.Write(b[:])
	case string:
		buf.WriteByte(byte(tagString))
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(len(x)))
		buf.Write(lb[:])
		buf.WriteString(x)
	case bool:
		buf.WriteByte(byte(tagBool))
		if x {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	default:
		return fmt.Errorf("%w: unsupported attribute type %T", ErrSchemaMismatch, v)
	}
	return nil
}

// DecodeTuple parses the wire representation produced by EncodeTuple.
func DecodeTuple(data []byte) (*Tuple, error) {
	r := bytes.NewReader(data)

	kindByte, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if elementKind(kindByte) != elementKindTuple {
		return nil, fmt.Errorf("%w: not a tuple element", ErrParse)
	}

	var hdr [8]byte
	if _, err := r.Read(hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrParse, err)
	}
	ts := int64(binary.LittleEndian.Uint64(hdr[:]))

	var arityBuf [4]byte
	if _, err := r.Read(arityBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: arity: %v", ErrParse, err)
	}
	arity := int(binary.LittleEndian.Uint32(arityBuf[:]))

	attrs := make([]any, arity)
	for i := 0; i < arity; i++ {
		tag, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %d tag: %v", ErrParse, i, err)
		}
		v, err := decodeValue(r, typeTag(tag))
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %d: %v", ErrParse, i, err)
		}
		attrs[i] = v
	}

	nullBytes := make([]byte, (arity+7)/8)
	if arity > 0 {
		if _, err := r.Read(nullBytes); err != nil {
			return nil, fmt.Errorf("%w: null bitmap: %v", ErrParse, err)
		}
	}

	nullBits := make([]bool, arity)
	for i := range nullBits {
		if nullBytes[i/8]&(1<<uint(i%8)) != 0 {
			nullBits[i] = true
			attrs[i] = nil
		}
	}

	t := &Tuple{attrs: attrs, nullBits: nullBits, timestamp: ts}
	t.refcount.Store(1)
	return t, nil
}

func decodeValue(r *bytes.Reader, tag typeTag) (any, error) {
	switch tag {
	case tagInt64:
		var b [8]byte
		if _, err := r.Read(b[:]); err != nil {
			return nil, err
		}
		return int64(binary.LittleEndian.Uint64(b[:])), nil
	case tagFloat64:
		var b [8]byte
		if _, err := r.Read(b[:]); err != nil {
			return nil, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b[:])), nil
	case tagString:
		var lb [4]byte
		if _, err := r.Read(lb[:]); err != nil {
			return nil, err
		}
		n := binary.LittleEndian.Uint32(lb[:])
		sb := make([]byte, n)
		if n > 0 {
			if _, err := r.Read(sb); err != nil {
				return nil, err
			}
		}
		return string(sb), nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	default:
		return nil, fmt.Errorf("unknown type tag %d", tag)
	}
}

// EncodePunctuation writes p's fixed wire representation.
func EncodePunctuation(p *Punctuation) []byte {
	buf := make([]byte, 1+1+8+8)
	buf[0] = byte(elementKindPunctuation)
	buf[1] = byte(p.Kind)
	binary.LittleEndian.PutUint64(buf[2:10], uint64(p.Timestamp))
	binary.LittleEndian.PutUint64(buf[10:18], uint64(p.TxID))
	return buf
}

// DecodePunctuation parses the wire representation produced by EncodePunctuation.
func DecodePunctuation(data []byte) (*Punctuation, error) {
	if len(data) != 18 {
		return nil, fmt.Errorf("%w: punctuation must be 18 bytes, got %d", ErrParse, len(data))
	}
	if elementKind(data[0]) != elementKindPunctuation {
		return nil, fmt.Errorf("%w: not a punctuation element", ErrParse)
	}
	p := &Punctuation{
		Kind:      PunctuationKind(data[1]),
		Timestamp: int64(binary.LittleEndian.Uint64(data[2:10])),
		TxID:      TransactionID(binary.LittleEndian.Uint64(data[10:18])),
	}
	p.refcount.Store(1)
	return p, nil
}
