package lsh

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Index is an immutable cross-polytope LSH index over a fixed point set.
// Points are referred to by their offset in the slice passed to Build.
type Index struct {
	params Params
	dim    int
	family *crossPolytope
	tables []map[uint64][]int32
	points [][]float64
}

// Build hashes every point into NumTables tables. The caller must not mutate
// points while the index is in use.
func Build(points [][]float64, params Params) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmpty
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-dimensional points", ErrEmpty)
	}
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has %d values, want %d", ErrRagged, i, len(p), dim)
		}
	}

	params = params.withDefaults()
	ix := &Index{
		params: params,
		dim:    dim,
		family: newCrossPolytope(dim, params),
		points: points,
	}

	keys := make([][]uint64, len(points))
	workers := params.SetupWorkers
	if workers > len(points) {
		workers = len(points)
	}
	chunk := (len(points) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(points); start += chunk {
		end := min(start+chunk, len(points))
		g.Go(func() error {
			h := ix.family.newHasher()
			for i := start; i < end; i++ {
				keys[i] = h.keys(points[i], params.NumTables)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ix.tables = make([]map[uint64][]int32, params.NumTables)
	for t := range ix.tables {
		table := make(map[uint64][]int32)
		for i := range points {
			k := keys[i][t]
			table[k] = append(table[k], int32(i))
		}
		ix.tables[t] = table
	}
	return ix, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.points) }

// Dimension returns the dimension of the indexed points.
func (ix *Index) Dimension() int { return ix.dim }

// Layout reports the hash layout chosen for this index's dimension.
func (ix *Index) Layout() HashLayout { return ix.family.layout }

// NumTables returns the number of hash tables.
func (ix *Index) NumTables() int { return ix.params.NumTables }
