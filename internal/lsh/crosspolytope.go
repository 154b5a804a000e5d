package lsh

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/OneOfOne/xxhash"
)

// crossPolytope is the hash family for all tables of one index. Each hash
// function applies NumRotations rounds of (random sign flip, Hadamard
// transform) and returns the signed index of the largest coordinate.
type crossPolytope struct {
	layout    HashLayout
	tables    int
	rotations int
	// signs[(table*k+fn)*rotations+round] holds the ±1 diagonal for that round.
	signs [][]int8
}

func newCrossPolytope(dim int, p Params) *crossPolytope {
	layout := ComputeHashLayout(p.NumHashBits, dim)
	cp := &crossPolytope{
		layout:    layout,
		tables:    p.NumTables,
		rotations: p.NumRotations,
	}

	rng := rand.New(rand.NewSource(p.Seed))
	total := p.NumTables * layout.NumHashes * p.NumRotations
	cp.signs = make([][]int8, total)
	for i := range cp.signs {
		d := make([]int8, layout.RotationDim)
		for j := range d {
			if rng.Intn(2) == 0 {
				d[j] = -1
			} else {
				d[j] = 1
			}
		}
		cp.signs[i] = d
	}
	return cp
}

// hasher carries per-goroutine scratch space for key computation.
type hasher struct {
	cp      *crossPolytope
	rotated []float64
	codes   []byte
}

func (cp *crossPolytope) newHasher() *hasher {
	return &hasher{
		cp:      cp,
		rotated: make([]float64, cp.layout.RotationDim),
		codes:   make([]byte, 4*cp.layout.NumHashes),
	}
}

// key returns the bucket key of v in the given table.
func (h *hasher) key(v []float64, table int) uint64 {
	k := h.cp.layout.NumHashes
	for fn := 0; fn < k; fn++ {
		dim := h.cp.layout.RotationDim
		if fn == k-1 {
			dim = h.cp.layout.LastDim
		}
		code := h.hashOne(v, table, fn, dim)
		binary.LittleEndian.PutUint32(h.codes[4*fn:], code)
	}
	return xxhash.Checksum64S(h.codes, uint64(table))
}

// keys returns the bucket keys of v in the first n tables.
func (h *hasher) keys(v []float64, n int) []uint64 {
	out := make([]uint64, n)
	for t := 0; t < n; t++ {
		out[t] = h.key(v, t)
	}
	return out
}

func (h *hasher) hashOne(v []float64, table, fn, dim int) uint32 {
	buf := h.rotated
	copy(buf, v)
	for i := len(v); i < len(buf); i++ {
		buf[i] = 0
	}

	base := (table*h.cp.layout.NumHashes + fn) * h.cp.rotations
	for r := 0; r < h.cp.rotations; r++ {
		signs := h.cp.signs[base+r]
		for i := range buf {
			if signs[i] < 0 {
				buf[i] = -buf[i]
			}
		}
		fwht(buf)
	}

	best := 0
	bestAbs := math.Abs(buf[0])
	for i := 1; i < dim; i++ {
		if a := math.Abs(buf[i]); a > bestAbs {
			best = i
			bestAbs = a
		}
	}
	if buf[best] < 0 {
		return uint32(best + dim)
	}
	return uint32(best)
}

// fwht is an in-place, unnormalized fast Walsh-Hadamard transform.
// len(a) must be a power of two.
func fwht(a []float64) {
	n := len(a)
	for h := 1; h < n; h <<= 1 {
		for i := 0; i < n; i += h << 1 {
			for j := i; j < i+h; j++ {
				x, y := a[j], a[j+h]
				a[j], a[j+h] = x+y, x-y
			}
		}
	}
}
