package dcthash

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

func TestNewHasherRejectsBadSizes(t *testing.T) {
	if _, err := NewHasher(32, 0); err == nil {
		t.Error("expected error for zero hashSize")
	}
	if _, err := NewHasher(4, 8); err == nil {
		t.Error("expected error for hashSize > resolution")
	}
}

func TestNewHasherAllowsSubByteHashSize(t *testing.T) {
	// hashSize² need not be a multiple of 8; the packed hash is padded to
	// a whole byte instead of being rejected (§8 scenario 6 uses hashSize=2
	// against a 4x4 input).
	h, err := NewHasher(32, 3)
	if err != nil {
		t.Fatalf("NewHasher(32, 3): unexpected error %v", err)
	}
	if got := h.HashBytes(); got != 2 {
		t.Errorf("HashBytes() for hashSize=3 (9 bits) = %d, want 2", got)
	}
}

func TestHashStableForIdenticalInput(t *testing.T) {
	h, err := NewHasher(32, 8)
	if err != nil {
		t.Fatal(err)
	}
	lum := make([]float64, 32*32)
	r := rand.New(rand.NewSource(42))
	for i := range lum {
		lum[i] = r.Float64() * 255
	}
	a, err := h.Hash(lum)
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Hash(lum)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("hash length changed: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("hash not stable at byte %d: %v vs %v", i, a, b)
		}
	}
}

func TestHashBytesLength(t *testing.T) {
	h, err := NewHasher(32, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := h.HashBytes(); got != 8 {
		t.Errorf("HashBytes() = %d, want 8", got)
	}
}

func TestConstantInputKnownVector(t *testing.T) {
	// A constant-1 4x4 input with hashSize=2: DC ~= 4.0 and all AC ~= 0.0,
	// so the hash must be all-zero bits (§8 scenario 6).
	h, err := NewHasher(4, 2)
	if err != nil {
		t.Fatal(err)
	}
	lum := make([]float64, 16)
	for i := range lum {
		lum[i] = 1.0
	}
	hash, err := h.Hash(lum)
	if err != nil {
		t.Fatalf("unexpected error on degenerate all-AC-zero input: %v", err)
	}
	for _, b := range hash {
		if b != 0 {
			t.Errorf("expected all-zero hash bits for constant input, got %v", hash)
		}
	}
}

func TestQuickSelectMatchesSort(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 1 + r.Intn(200)
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = r.Float64()*2000 - 1000
		}
		sorted := make([]float64, n)
		copy(sorted, vals)
		sort.Float64s(sorted)
		for k := 0; k < n; k++ {
			cp := make([]float64, n)
			copy(cp, vals)
			got := QuickSelect(cp, k)
			if math.Abs(got-sorted[k]) > 1e-9 {
				t.Fatalf("QuickSelect(arr, %d) = %v, want %v", k, got, sorted[k])
			}
		}
	}
}

func TestIsDegenerate(t *testing.T) {
	if !IsDegenerate([]byte{0x00, 0x00}) {
		t.Error("all-zero hash should be degenerate")
	}
	if !IsDegenerate([]byte{0xff, 0xff}) {
		t.Error("all-one hash should be degenerate")
	}
	if IsDegenerate([]byte{0xff, 0x00}) {
		t.Error("mixed hash should not be degenerate")
	}
	if !IsDegenerate(nil) {
		t.Error("empty hash should be treated as degenerate")
	}
}
