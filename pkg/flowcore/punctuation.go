package flowcore

import (
	"fmt"
	"sync/atomic"
)

// ============================================================================
// PUNCTUATION - IN-BAND CONTROL SIGNALS
// ============================================================================

// PunctuationKind enumerates the control signals a Punctuation can carry.
type PunctuationKind uint8

const (
	EndOfStream PunctuationKind = iota
	EndOfSubStream
	WindowExpired
	SlideExpired
	TxBegin
	TxCommit
)

func (k PunctuationKind) String() string {
	switch k {
	case EndOfStream:
		return "EndOfStream"
	case EndOfSubStream:
		return "EndOfSubStream"
	case WindowExpired:
		return "WindowExpired"
	case SlideExpired:
		return "SlideExpired"
	case TxBegin:
		return "TxBegin"
	case TxCommit:
		return "TxCommit"
	default:
		return fmt.Sprintf("PunctuationKind(%d)", uint8(k))
	}
}

// Punctuation is a shared, reference-counted control element traveling
// inline with data. Operators that do not consume a punctuation must
// forward it unchanged.
type Punctuation struct {
	Kind      PunctuationKind
	Timestamp int64 // microseconds since Unix epoch
	TxID      TransactionID
	refcount  atomic.Int32
}

// NewPunctuation builds a punctuation of the given kind at the given
// timestamp. TxID is only meaningful for TxBegin/TxCommit.
func NewPunctuation(kind PunctuationKind, timestampUS int64) *Punctuation {
	p := &Punctuation{Kind: kind, Timestamp: timestampUS}
	p.refcount.Store(1)
	return p
}

// NewTxPunctuation builds a TxBegin/TxCommit punctuation.
func NewTxPunctuation(kind PunctuationKind, timestampUS int64, tx TransactionID) *Punctuation {
	p := &Punctuation{Kind: kind, Timestamp: timestampUS, TxID: tx}
	p.refcount.Store(1)
	return p
}

// Retain increments the shared-ownership reference count, mirroring Tuple's
// contract: punctuations are forwarded by every operator that does not
// consume them, so they are shared the same way.
func (p *Punctuation) Retain() *Punctuation {
	p.refcount.Add(1)
	return p
}

// Release decrements the reference count and returns the new value.
func (p *Punctuation) Release() int32 {
	return p.refcount.Add(-1)
}

// RefCount returns the current reference count.
func (p *Punctuation) RefCount() int32 {
	return p.refcount.Load()
}

// IsTx reports whether this is a transaction-chopping punctuation.
func (p *Punctuation) IsTx() bool {
	return p.Kind == TxBegin || p.Kind == TxCommit
}

func (p *Punctuation) String() string {
	if p.IsTx() {
		return fmt.Sprintf("%s(tx=%d, ts=%d)", p.Kind, p.TxID, p.Timestamp)
	}
	return fmt.Sprintf("%s(ts=%d)", p.Kind, p.Timestamp)
}
