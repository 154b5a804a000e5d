package lsh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Neighbor is one result of a nearest-neighbor lookup.
type Neighbor struct {
	Offset   int     // position of the point in the slice given to Build
	Distance float64 // exact Euclidean distance to the query
}

// Query runs lookups against an Index with a fixed probe budget. A Query
// holds no mutable state and is safe for concurrent use.
type Query struct {
	ix     *Index
	probes int
}

// NewQuery returns a query object that probes numProbes buckets. Each table
// contributes at most one probe, so budgets above NumTables are capped.
func (ix *Index) NewQuery(numProbes int) *Query {
	if numProbes <= 0 || numProbes > ix.params.NumTables {
		numProbes = ix.params.NumTables
	}
	return &Query{ix: ix, probes: numProbes}
}

// Probes returns the effective probe budget.
func (q *Query) Probes() int { return q.probes }

// Candidates returns the offsets sharing at least one probed bucket with v,
// in ascending order.
func (q *Query) Candidates(v []float64) ([]int, error) {
	if len(v) != q.ix.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(v), q.ix.dim)
	}

	h := q.ix.family.newHasher()
	seen := make(map[int32]struct{})
	for t := 0; t < q.probes; t++ {
		for _, off := range q.ix.tables[t][h.key(v, t)] {
			seen[off] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for off := range seen {
		out = append(out, int(off))
	}
	sort.Ints(out)
	return out, nil
}

// FindKNearest returns up to k candidates ordered by exact Euclidean distance.
// Ties are broken by offset. Fewer than k results come back when the probed
// buckets do not hold enough points.
func (q *Query) FindKNearest(v []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	offsets, err := q.Candidates(v)
	if err != nil {
		return nil, err
	}

	res := make([]Neighbor, len(offsets))
	for i, off := range offsets {
		res[i] = Neighbor{Offset: off, Distance: floats.Distance(v, q.ix.points[off], 2)}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Distance < res[j].Distance
	})
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}
