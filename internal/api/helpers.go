package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

// uniqueKeyForRoots derives a deterministic key from a root set so that
// two requests naming the same roots in a different order collide on the
// same EnqueueUnique task ID.
func uniqueKeyForRoots(roots []string) string {
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(sum[:])
}

// parseScanPath splits "/api/v1/scans/{id}[/rest]" into the scan UUID and
// the trailing path segment ("", "duplicates" or "resolve").
func parseScanPath(path string) (uuid.UUID, string, error) {
	trimmed := strings.TrimPrefix(path, "/api/v1/scans/")
	if trimmed == path {
		return uuid.UUID{}, "", errors.New("not a scan path")
	}
	parts := strings.SplitN(trimmed, "/", 2)
	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.UUID{}, "", errors.New("malformed scan id")
	}
	if len(parts) == 1 {
		return id, "", nil
	}
	return id, parts[1], nil
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
