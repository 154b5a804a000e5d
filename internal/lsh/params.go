// Package lsh implements a cross-polytope locality-sensitive hash index for
// approximate nearest-neighbor search over dense float64 vectors.
//
// An Index is built once over a fixed set of points and never mutated, so
// the Query objects derived from it can be shared between goroutines.
package lsh

import (
	"errors"
	"math/bits"
	"runtime"
)

// Construction constants used by the similarity engine. They are part of the
// on-disk similarity lists' reproducibility, so changing them changes results.
const (
	DefaultNumTables    = 25
	DefaultNumRotations = 2
	DefaultNumHashBits  = 18
	DefaultSeed         = 5721840
	DefaultNumProbes    = 25
)

var (
	ErrEmpty     = errors.New("lsh: no points to index")
	ErrRagged    = errors.New("lsh: points have inconsistent dimensions")
	ErrDimension = errors.New("lsh: query dimension does not match index")
)

// Params configures index construction.
type Params struct {
	NumTables    int   // independent hash tables (L)
	NumRotations int   // pseudo-random rotations per cross-polytope hash
	NumHashBits  int   // target bits per table key; drives the number of hash functions
	Seed         int64 // seed for the random rotations
	SetupWorkers int   // goroutines hashing points during Build; 0 means one per CPU
}

// DefaultParams returns the fixed construction policy.
func DefaultParams() Params {
	return Params{
		NumTables:    DefaultNumTables,
		NumRotations: DefaultNumRotations,
		NumHashBits:  DefaultNumHashBits,
		Seed:         DefaultSeed,
	}
}

func (p Params) withDefaults() Params {
	if p.NumTables <= 0 {
		p.NumTables = DefaultNumTables
	}
	if p.NumRotations <= 0 {
		p.NumRotations = DefaultNumRotations
	}
	if p.NumHashBits <= 0 {
		p.NumHashBits = DefaultNumHashBits
	}
	if p.SetupWorkers <= 0 {
		p.SetupWorkers = runtime.NumCPU()
	}
	return p
}

// HashLayout describes how a table key is assembled for a given dimension.
type HashLayout struct {
	RotationDim int // dimension after zero padding to a power of two
	NumHashes   int // cross-polytope hash functions per table (k)
	LastDim     int // dimension of the final, possibly truncated, cross-polytope
}

// ComputeHashLayout picks the number of cross-polytope hash functions so that
// one table key carries numBits bits at the given dimension. A full
// cross-polytope on d dimensions yields log2(2d) bits; any remainder is covered
// by a smaller cross-polytope over the leading coordinates of the rotation.
func ComputeHashLayout(numBits, dim int) HashLayout {
	rotDim := nextPow2(dim)
	perHash := bits.TrailingZeros(uint(2 * rotDim))

	k := numBits / perHash
	lastDim := rotDim
	if rem := numBits % perHash; rem > 0 {
		k++
		lastDim = 1 << (rem - 1)
	}
	if k == 0 {
		k = 1
	}
	return HashLayout{RotationDim: rotDim, NumHashes: k, LastDim: lastDim}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
