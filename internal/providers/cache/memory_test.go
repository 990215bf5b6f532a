package cache

import (
	"context"
	"testing"

	"github.com/sylphlab/mediadedup/internal/models"
)

func TestMemoryStoreGetMiss(t *testing.T) {
	m := NewMemoryStore()
	_, ok, err := m.Get(context.Background(), models.CacheKey{Path: "a.jpg"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get on empty store: expected ok=false")
	}
}

func TestMemoryStorePutThenGet(t *testing.T) {
	m := NewMemoryStore()
	key := models.CacheKey{Path: "a.jpg", Size: 100, ContentHash: "abc"}
	info := models.FileInfo{Path: "a.jpg"}

	if err := m.Put(context.Background(), key, info); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := m.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("Get after Put: got=%v ok=%v err=%v", got, ok, err)
	}
	if got.Path != "a.jpg" {
		t.Errorf("Path = %q, want a.jpg", got.Path)
	}

	other := models.CacheKey{Path: "a.jpg", Size: 101, ContentHash: "abc"}
	if _, ok, _ := m.Get(context.Background(), other); ok {
		t.Error("Get with different size: expected a miss since CacheKey includes Size")
	}
}
