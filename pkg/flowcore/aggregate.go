package flowcore

import (
	"fmt"
	"sort"
)

// ============================================================================
// AGGREGATE — an algebraic accumulator with init/iterate/value, generalized
// from the teacher's Aggregator[T,A,R]{Initial,Accumulate,Finalize} shape
// with an added undo capability: iterate(e, true) must undo the matching
// prior iterate(e, false), required for window retraction.
// ============================================================================

// Numeric mirrors the teacher's constraint, reused for Sum/Avg/Min/Max
// column extraction.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Aggregate is the algebraic structure: Init creates the zero accumulator,
// Iterate folds one (value, outdated) pair into it, Finalize extracts the
// visible result. Iterate returns ErrSchemaMismatch-wrapped errors for
// aggregates that cannot undo a retraction (e.g. GlobalMin): those reject
// outdated input rather than silently producing a wrong answer.
type Aggregate[A any, R any] struct {
	Init     func() A
	Iterate  func(acc A, value float64, outdated bool) (A, error)
	Finalize func(acc A) R
}

// floatOf extracts a float64 from a column value for the numeric aggregates
// below; the column index is resolved by the caller (aggregate_arity.go /
// groupby.go) before Iterate is invoked.
func floatOf(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("%w: value %v (%T) is not numeric", ErrSchemaMismatch, v, v)
	}
}

type sumState struct{ total float64 }

// SumAggregate computes a running sum; undo subtracts.
func SumAggregate() Aggregate[sumState, float64] {
	return Aggregate[sumState, float64]{
		Init: func() sumState { return sumState{} },
		Iterate: func(acc sumState, v float64, outdated bool) (sumState, error) {
			if outdated {
				acc.total -= v
			} else {
				acc.total += v
			}
			return acc, nil
		},
		Finalize: func(acc sumState) float64 { return acc.total },
	}
}

type countState struct{ n int64 }

// CountAggregate counts non-outdated elements minus retracted ones.
func CountAggregate() Aggregate[countState, int64] {
	return Aggregate[countState, int64]{
		Init: func() countState { return countState{} },
		Iterate: func(acc countState, _ float64, outdated bool) (countState, error) {
			if outdated {
				acc.n--
			} else {
				acc.n++
			}
			return acc, nil
		},
		Finalize: func(acc countState) int64 { return acc.n },
	}
}

type avgState struct {
	total float64
	n     int64
}

// AvgAggregate computes a running mean; Finalize returns 0 for an empty
// window (the Boundary behaviors section leaves Avg's empty case as a
// DivZero failure at the caller's discretion — we return 0 to keep the
// algebra total, and callers that need the error can check Count first).
func AvgAggregate() Aggregate[avgState, float64] {
	return Aggregate[avgState, float64]{
		Init: func() avgState { return avgState{} },
		Iterate: func(acc avgState, v float64, outdated bool) (avgState, error) {
			if outdated {
				acc.total -= v
				acc.n--
			} else {
				acc.total += v
				acc.n++
			}
			return acc, nil
		},
		Finalize: func(acc avgState) float64 {
			if acc.n == 0 {
				return 0
			}
			return acc.total / float64(acc.n)
		},
	}
}

type minMaxState struct {
	counts map[float64]int
}

// MinAggregate tracks the running minimum over a multiset, so a retraction
// of the current minimum correctly reveals the next-smallest value.
func MinAggregate() Aggregate[minMaxState, float64] {
	return multisetExtreme(func(values []float64) float64 {
		sort.Float64s(values)
		return values[0]
	})
}

// MaxAggregate tracks the running maximum over a multiset.
func MaxAggregate() Aggregate[minMaxState, float64] {
	return multisetExtreme(func(values []float64) float64 {
		sort.Float64s(values)
		return values[len(values)-1]
	})
}

func multisetExtreme(pick func([]float64) float64) Aggregate[minMaxState, float64] {
	return Aggregate[minMaxState, float64]{
		Init: func() minMaxState { return minMaxState{counts: make(map[float64]int)} },
		Iterate: func(acc minMaxState, v float64, outdated bool) (minMaxState, error) {
			if outdated {
				acc.counts[v]--
				if acc.counts[v] <= 0 {
					delete(acc.counts, v)
				}
			} else {
				acc.counts[v]++
			}
			return acc, nil
		},
		Finalize: func(acc minMaxState) float64 {
			if len(acc.counts) == 0 {
				return 0
			}
			values := make([]float64, 0, len(acc.counts))
			for v := range acc.counts {
				values = append(values, v)
			}
			return pick(values)
		},
	}
}

type globalExtremeState struct {
	value float64
	set   bool
}

// GlobalMinAggregate tracks the minimum ever seen; undo is impossible once
// the minimum has been retracted, so Iterate rejects outdated input.
func GlobalMinAggregate() Aggregate[globalExtremeState, float64] {
	return globalExtreme(func(a, b float64) bool { return b < a })
}

// GlobalMaxAggregate tracks the maximum ever seen, with the same undo
// restriction as GlobalMinAggregate.
func GlobalMaxAggregate() Aggregate[globalExtremeState, float64] {
	return globalExtreme(func(a, b float64) bool { return b > a })
}

func globalExtreme(better func(current, candidate float64) bool) Aggregate[globalExtremeState, float64] {
	return Aggregate[globalExtremeState, float64]{
		Init: func() globalExtremeState { return globalExtremeState{} },
		Iterate: func(acc globalExtremeState, v float64, outdated bool) (globalExtremeState, error) {
			if outdated {
				return acc, fmt.Errorf("%w: GlobalMin/GlobalMax cannot undo a retraction", ErrSchemaMismatch)
			}
			if !acc.set || better(acc.value, v) {
				acc.value = v
				acc.set = true
			}
			return acc, nil
		},
		Finalize: func(acc globalExtremeState) float64 { return acc.value },
	}
}

type recentState struct {
	values []float64
	n      int
}

// LRecentAggregate keeps the n least-recently-seen (oldest) values still
// present in the window, in arrival order.
func LRecentAggregate(n int) Aggregate[recentState, []float64] {
	return recentWindow(n, true)
}

// MRecentAggregate keeps the n most-recently-seen values still present.
func MRecentAggregate(n int) Aggregate[recentState, []float64] {
	return recentWindow(n, false)
}

func recentWindow(n int, oldest bool) Aggregate[recentState, []float64] {
	return Aggregate[recentState, []float64]{
		Init: func() recentState { return recentState{n: n} },
		Iterate: func(acc recentState, v float64, outdated bool) (recentState, error) {
			if outdated {
				for i, x := range acc.values {
					if x == v {
						acc.values = append(acc.values[:i], acc.values[i+1:]...)
						break
					}
				}
				return acc, nil
			}
			acc.values = append(acc.values, v)
			if len(acc.values) > acc.n {
				if oldest {
					acc.values = acc.values[:acc.n]
				} else {
					acc.values = acc.values[len(acc.values)-acc.n:]
				}
			}
			return acc, nil
		},
		Finalize: func(acc recentState) []float64 {
			out := make([]float64, len(acc.values))
			copy(out, acc.values)
			return out
		},
	}
}

type medianState struct {
	sorted []float64
}

// MedianAggregate maintains an ordered multiset and reports its median,
// per spec.md's "via ordered-multiset positional pointer" guidance.
func MedianAggregate() Aggregate[medianState, float64] {
	return Aggregate[medianState, float64]{
		Init: func() medianState { return medianState{} },
		Iterate: func(acc medianState, v float64, outdated bool) (medianState, error) {
			if outdated {
				idx := sort.SearchFloat64s(acc.sorted, v)
				if idx < len(acc.sorted) && acc.sorted[idx] == v {
					acc.sorted = append(acc.sorted[:idx], acc.sorted[idx+1:]...)
				}
				return acc, nil
			}
			idx := sort.SearchFloat64s(acc.sorted, v)
			acc.sorted = append(acc.sorted, 0)
			copy(acc.sorted[idx+1:], acc.sorted[idx:])
			acc.sorted[idx] = v
			return acc, nil
		},
		Finalize: func(acc medianState) float64 {
			n := len(acc.sorted)
			if n == 0 {
				return 0
			}
			if n%2 == 1 {
				return acc.sorted[n/2]
			}
			return (acc.sorted[n/2-1] + acc.sorted[n/2]) / 2
		},
	}
}

type dcountState struct {
	counts map[float64]int
}

// DCountAggregate counts distinct values currently present, via a hash
// counter per spec.md's "via hash counter" guidance.
func DCountAggregate() Aggregate[dcountState, int64] {
	return Aggregate[dcountState, int64]{
		Init: func() dcountState { return dcountState{counts: make(map[float64]int)} },
		Iterate: func(acc dcountState, v float64, outdated bool) (dcountState, error) {
			if outdated {
				acc.counts[v]--
				if acc.counts[v] <= 0 {
					delete(acc.counts, v)
				}
			} else {
				acc.counts[v]++
			}
			return acc, nil
		},
		Finalize: func(acc dcountState) int64 { return int64(len(acc.counts)) },
	}
}
