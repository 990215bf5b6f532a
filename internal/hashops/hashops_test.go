package hashops

import (
	"math/rand"
	"testing"
)

func TestPopcountByte(t *testing.T) {
	cases := []struct {
		in   byte
		want int
	}{
		{0x00, 0}, {0xff, 8}, {0x01, 1}, {0xaa, 4}, {0x0f, 4},
	}
	for _, c := range cases {
		if got := PopcountByte(c.in); got != c.want {
			t.Errorf("PopcountByte(%#x) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestPopcountWord64(t *testing.T) {
	if got := PopcountWord64(0); got != 0 {
		t.Errorf("PopcountWord64(0) = %d, want 0", got)
	}
	if got := PopcountWord64(^uint64(0)); got != 64 {
		t.Errorf("PopcountWord64(all ones) = %d, want 64", got)
	}
}

func TestHammingDistanceSelfIsZero(t *testing.T) {
	buf := make([]byte, 32)
	rand.New(rand.NewSource(1)).Read(buf)
	if d := HammingDistance(buf, buf); d != 0 {
		t.Errorf("hamming(a,a) = %d, want 0", d)
	}
}

func TestHammingDistanceSymmetric(t *testing.T) {
	a := []byte{0xde, 0xad, 0xbe, 0xef}
	b := []byte{0x01, 0x23, 0x45, 0x67}
	if HammingDistance(a, b) != HammingDistance(b, a) {
		t.Error("hamming distance is not symmetric")
	}
}

func TestHammingDistanceBound(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		n := 1 + r.Intn(64)
		a := make([]byte, n)
		b := make([]byte, n)
		r.Read(a)
		r.Read(b)
		d := HammingDistance(a, b)
		if d > 8*n {
			t.Errorf("hamming(a,b) = %d exceeds bound %d", d, 8*n)
		}
	}
}

func TestHammingDistanceMismatchedLengths(t *testing.T) {
	a := []byte{0xff, 0xff}
	b := []byte{0xff}
	// b is zero-padded: second byte of a (0xff) XOR 0x00 contributes 8 bits.
	if got := HammingDistance(a, b); got != 8 {
		t.Errorf("hamming with mismatched lengths = %d, want 8", got)
	}
}

func TestBackendsAgree(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	sc := scalarBackend{}
	si := simdBackend{}
	for i := 0; i < 100; i++ {
		n := r.Intn(40)
		a := make([]byte, n)
		b := make([]byte, n)
		r.Read(a)
		r.Read(b)
		if sc.Distance(a, b) != si.Distance(a, b) {
			t.Fatalf("scalar and simd backends disagree on length %d", n)
		}
	}
}
