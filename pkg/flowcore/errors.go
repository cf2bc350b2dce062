package flowcore

import "errors"

// TransactionID identifies a transaction-chopping punctuation or an MVCC
// transaction. Zero is reserved for "no transaction".
type TransactionID uint64

// Sentinel errors. Operators and stores wrap these with fmt.Errorf("%w")
// so callers can use errors.Is against the taxonomy without string matching.
var (
	// ErrParse signals malformed input: a wire-format violation, an
	// unparsable timestamp, or a CSV field that doesn't parse as its
	// declared type.
	ErrParse = errors.New("flowcore: parse error")

	// ErrSchemaMismatch signals an attribute whose type or arity doesn't
	// match what an operator expected.
	ErrSchemaMismatch = errors.New("flowcore: schema mismatch")

	// ErrKeyNotFound signals a table lookup that found no record, and no
	// version visible to the current transaction's snapshot.
	ErrKeyNotFound = errors.New("flowcore: key not found")

	// ErrWriteConflict signals a first-committer-wins MVCC conflict: a
	// transaction's write set overlaps a version committed after it began.
	ErrWriteConflict = errors.New("flowcore: write conflict")

	// ErrTxAborted signals an operation attempted against a transaction
	// that has already committed or aborted, or a commit whose read-set
	// validation failed (the transaction is then aborted).
	ErrTxAborted = errors.New("flowcore: transaction aborted")

	// ErrTopology signals a topology lifecycle violation: Start on a
	// topology with no source, a second Start (including one after
	// StopThreads), or Wait before Start. The operator graph itself is not
	// checked: cycles and unconnected operators are not detected.
	ErrTopology = errors.New("flowcore: topology error")

	// ErrIO signals a failure from an external I/O boundary: file, socket,
	// or broker connection.
	ErrIO = errors.New("flowcore: io error")
)
