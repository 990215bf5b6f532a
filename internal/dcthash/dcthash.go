// Package dcthash builds perceptual hashes from grayscale luminance blocks
// via a separable Discrete Cosine Transform and a median-threshold step,
// following the fast-DCT approach used throughout the perceptual-hashing
// lineage (cf. average-hash/difference-hash implementations that threshold
// against a running median instead of sorting the whole transform).
package dcthash

import (
	"math"

	"github.com/sylphlab/mediadedup/internal/dederr"
)

// Hasher precomputes the DCT coefficient table and normalization factors
// for one (resolution, hashSize) pair and reuses them across every call to
// Hash. A Hasher is safe for concurrent use; all of its state is built once
// and read-only afterward.
type Hasher struct {
	Resolution int
	HashSize   int

	// dctCoefficients[u*resolution+x] = cos((2x+1) u pi / (2 resolution))
	dctCoefficients []float64
	// normFactors[u] = sqrt(2/resolution) * (u==0 ? 1/sqrt(2) : 1)
	normFactors []float64
}

// HashBytes returns ceil(hashSize²/8), the packed byte length of hashes
// produced by this Hasher. hashSize² need not be a multiple of 8: the last
// byte is zero-padded in its high bits.
func (h *Hasher) HashBytes() int {
	bits := h.HashSize * h.HashSize
	return (bits + 7) / 8
}

// NewHasher builds a Hasher for the given resolution (the luminance block's
// side length) and hashSize (the side length of the low-frequency DCT
// block retained for hashing).
func NewHasher(resolution, hashSize int) (*Hasher, error) {
	if resolution <= 0 || hashSize <= 0 || hashSize > resolution {
		return nil, dederr.New(dederr.Validation, "dcthash.NewHasher", nil).WithTool("dcthash")
	}
	h := &Hasher{Resolution: resolution, HashSize: hashSize}
	h.dctCoefficients = make([]float64, hashSize*resolution)
	for u := 0; u < hashSize; u++ {
		for x := 0; x < resolution; x++ {
			h.dctCoefficients[u*resolution+x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / float64(2*resolution))
		}
	}
	h.normFactors = make([]float64, hashSize)
	base := math.Sqrt(2.0 / float64(resolution))
	for u := 0; u < hashSize; u++ {
		if u == 0 {
			h.normFactors[u] = base / math.Sqrt(2)
		} else {
			h.normFactors[u] = base
		}
	}
	return h, nil
}

// coeff returns dctCoefficients[u*resolution+x], validating bounds per the
// §4.2 failure mode (an undersized table is an out-of-bounds validation
// error, not a panic).
func (h *Hasher) coeff(u, x int) (float64, error) {
	idx := u*h.Resolution + x
	if idx < 0 || idx >= len(h.dctCoefficients) {
		return 0, dederr.New(dederr.Validation, "dcthash.coeff: index out of bounds", nil)
	}
	return h.dctCoefficients[idx], nil
}

// Hash runs the fast separable DCT over a row-major resolution×resolution
// grayscale luminance block and packs the hashSize² above-median bits into
// HashBytes() = ceil(hashSize²/8) bytes.
func (h *Hasher) Hash(luminance []float64) ([]byte, error) {
	res, hs := h.Resolution, h.HashSize
	if len(luminance) != res*res {
		return nil, dederr.New(dederr.Validation, "dcthash.Hash: wrong luminance length", nil)
	}
	if len(h.dctCoefficients) < hs*res {
		return nil, dederr.New(dederr.Validation, "dcthash.Hash: coefficient table too short", nil)
	}

	// Row pass: T[y,u] = sum_x input[y,x] * coeff[u,x]
	T := make([]float64, res*hs)
	for y := 0; y < res; y++ {
		row := luminance[y*res : y*res+res]
		for u := 0; u < hs; u++ {
			var sum float64
			base := u * res
			for x := 0; x < res; x++ {
				sum += row[x] * h.dctCoefficients[base+x]
			}
			T[y*hs+u] = sum
		}
	}

	// Column pass: D[u,v] = normFactors[u]*normFactors[v] * sum_y coeff[v,y]*T[y,u]
	D := make([]float64, hs*hs)
	for u := 0; u < hs; u++ {
		for v := 0; v < hs; v++ {
			var sum float64
			base := v * res
			for y := 0; y < res; y++ {
				sum += h.dctCoefficients[base+y] * T[y*hs+u]
			}
			D[u*hs+v] = h.normFactors[u] * h.normFactors[v] * sum
		}
	}

	// Median of D excluding D[0,0] (the DC component), via quickSelect.
	ac := make([]float64, 0, hs*hs-1)
	for i, val := range D {
		if i == 0 {
			continue
		}
		ac = append(ac, val)
	}
	if len(ac) == 0 {
		return nil, dederr.New(dederr.Hashing, "dcthash.Hash: cannot compute median AC value", nil)
	}
	median := medianOf(ac)

	bits := hs * hs
	out := make([]byte, (bits+7)/8)
	for u := 0; u < hs; u++ {
		for v := 0; v < hs; v++ {
			k := u*hs + v
			if k == 0 {
				continue // DC bit always 0
			}
			if D[k] > median {
				out[k/8] |= 1 << uint(k%8)
			}
		}
	}
	return out, nil
}

// medianOf returns the median of vals via quickSelect, taking the
// upper-middle element when the count is even rather than averaging the
// two middle values.
func medianOf(vals []float64) float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	return QuickSelect(cp, len(cp)/2)
}

// QuickSelect returns the k-th smallest element (0-indexed) of arr using
// Hoare partitioning, average O(n), mutating arr in place.
func QuickSelect(arr []float64, k int) float64 {
	lo, hi := 0, len(arr)-1
	for {
		if lo == hi {
			return arr[lo]
		}
		p := hoarePartition(arr, lo, hi)
		if k <= p {
			hi = p
		} else {
			lo = p + 1
		}
	}
}

func hoarePartition(arr []float64, lo, hi int) int {
	pivot := arr[(lo+hi)/2]
	i, j := lo-1, hi+1
	for {
		for {
			i++
			if arr[i] >= pivot {
				break
			}
		}
		for {
			j--
			if arr[j] <= pivot {
				break
			}
		}
		if i >= j {
			return j
		}
		arr[i], arr[j] = arr[j], arr[i]
	}
}

// IsDegenerate reports whether a packed hash is all-zero or all-one bits,
// the solid-color/degenerate case the orchestrator excludes from
// clustering rather than letting collapse everything into one cluster.
func IsDegenerate(hash []byte) bool {
	if len(hash) == 0 {
		return true
	}
	allZero, allOne := true, true
	for _, b := range hash {
		if b != 0x00 {
			allZero = false
		}
		if b != 0xff {
			allOne = false
		}
		if !allZero && !allOne {
			return false
		}
	}
	return allZero || allOne
}
