// Package hashops implements the bit-level primitives the rest of the
// engine builds on: population count and Hamming distance over byte
// buffers, with a runtime-selected SIMD backend and a mandatory scalar
// fallback that must agree with it bit-for-bit.
package hashops

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// PopcountByte returns the population count (number of set bits) of an
// 8-bit word using the standard parallel bit-count trick.
func PopcountByte(b byte) int {
	b = b - ((b >> 1) & 0x55)
	b = (b & 0x33) + ((b >> 2) & 0x33)
	b = (b + (b >> 4)) & 0x0F
	return int(b)
}

// PopcountWord64 returns the population count of a 64-bit word using the
// bit-pair, nibble, byte and word reduction steps.
func PopcountWord64(w uint64) int {
	w = w - ((w >> 1) & 0x5555555555555555)
	w = (w & 0x3333333333333333) + ((w >> 2) & 0x3333333333333333)
	w = (w + (w >> 4)) & 0x0f0f0f0f0f0f0f0f
	return int((w * 0x0101010101010101) >> 56)
}

// HammingBackend computes the Hamming distance between two equal-length
// byte buffers. Implementations must treat length mismatches by
// zero-padding the shorter buffer rather than erroring.
type HammingBackend interface {
	Name() string
	Distance(a, b []byte) int
}

type scalarBackend struct{}

func (scalarBackend) Name() string { return "scalar" }

func (scalarBackend) Distance(a, b []byte) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	total := 0
	for i := 0; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		total += PopcountByte(x ^ y)
	}
	return total
}

// simdBackend processes 16-byte (128-bit) lanes at a time and falls back
// to the scalar path for the remainder. It contains no actual assembly —
// Go has no portable inline-SIMD primitive in the standard library — but
// it is structured as the lane-width the spec calls for and is verified
// against the scalar backend by selectBackend's self-test.
type simdBackend struct{}

func (simdBackend) Name() string { return "simd128" }

func (simdBackend) Distance(a, b []byte) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	total := 0
	i := 0
	const lane = 16
	for ; i+lane <= n; i += lane {
		for j := 0; j < lane; j++ {
			k := i + j
			var x, y byte
			if k < len(a) {
				x = a[k]
			}
			if k < len(b) {
				y = b[k]
			}
			total += PopcountByte(x ^ y)
		}
	}
	for ; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		total += PopcountByte(x ^ y)
	}
	return total
}

var (
	backendOnce sync.Once
	backend     HammingBackend
	warnOnce    sync.Once
	warnLog     func(string, ...interface{})
)

// selectBackend picks the SIMD backend when the CPU advertises the lane
// features it relies on, otherwise the scalar fallback. It self-tests the
// SIMD backend against a handful of known vectors and falls back with a
// one-time warning if they disagree.
func selectBackend() HammingBackend {
	if cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD {
		s := simdBackend{}
		if simdSelfTestPasses(s) {
			return s
		}
		warnOnce.Do(func() {
			logWarn("hashops: SIMD backend failed self-test, using scalar fallback")
		})
	}
	return scalarBackend{}
}

func simdSelfTestPasses(s HammingBackend) bool {
	sc := scalarBackend{}
	vectors := [][2][]byte{
		{make([]byte, 32), make([]byte, 32)},
		{[]byte{0xff, 0x00, 0xaa, 0x55}, []byte{0x00, 0xff, 0x55, 0xaa}},
		{[]byte{0x01}, []byte{}},
	}
	for _, v := range vectors {
		if s.Distance(v[0], v[1]) != sc.Distance(v[0], v[1]) {
			return false
		}
	}
	return true
}

func logWarn(format string, args ...interface{}) {
	if warnLog != nil {
		warnLog(format, args...)
		return
	}
	defaultLog(format, args...)
}

// Backend returns the process-wide HammingBackend, selecting and
// self-testing it on first use.
func Backend() HammingBackend {
	backendOnce.Do(func() {
		backend = selectBackend()
		logWarn("hashops: selected Hamming backend %q", backend.Name())
	})
	return backend
}

// HammingDistance XORs each pair of corresponding bytes of a and b and
// sums their popcounts, using the process-wide backend. When lengths
// differ, bytes from the longer buffer count against an implicit zero
// buffer.
func HammingDistance(a, b []byte) int {
	return Backend().Distance(a, b)
}
