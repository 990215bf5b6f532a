package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestUniqueKeyForRootsOrderIndependent(t *testing.T) {
	a := uniqueKeyForRoots([]string{"/library/a", "/library/b"})
	b := uniqueKeyForRoots([]string{"/library/b", "/library/a"})
	if a != b {
		t.Errorf("uniqueKeyForRoots order dependent: %q != %q", a, b)
	}

	c := uniqueKeyForRoots([]string{"/library/a", "/library/c"})
	if a == c {
		t.Error("uniqueKeyForRoots collided for different root sets")
	}
}

func TestParseScanPath(t *testing.T) {
	id := uuid.New()

	gotID, rest, err := parseScanPath("/api/v1/scans/" + id.String())
	if err != nil || gotID != id || rest != "" {
		t.Errorf("parseScanPath(bare id) = (%v, %q, %v), want (%v, \"\", nil)", gotID, rest, err, id)
	}

	gotID, rest, err = parseScanPath("/api/v1/scans/" + id.String() + "/duplicates")
	if err != nil || gotID != id || rest != "duplicates" {
		t.Errorf("parseScanPath(duplicates) = (%v, %q, %v), want (%v, \"duplicates\", nil)", gotID, rest, err, id)
	}

	if _, _, err := parseScanPath("/api/v1/scans/not-a-uuid"); err == nil {
		t.Error("parseScanPath(malformed id): expected error, got nil")
	}

	if _, _, err := parseScanPath("/healthz"); err == nil {
		t.Error("parseScanPath(unrelated path): expected error, got nil")
	}
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/scans", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	if got := bearerToken(r); got != "abc123" {
		t.Errorf("bearerToken(header) = %q, want %q", got, "abc123")
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=xyz789", nil)
	if got := bearerToken(r); got != "xyz789" {
		t.Errorf("bearerToken(query) = %q, want %q", got, "xyz789")
	}
}
