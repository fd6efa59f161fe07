package memory

import (
	"breederbook/internal/blob/core"
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestStoreIsCreateOnly(t *testing.T) {
	store := New()
	ctx := context.Background()
	meta := map[string]string{"source": "upload"}
	if _, err := store.Put(ctx, "a/1", bytes.NewReader([]byte("one")), core.PutOptions{Metadata: meta}); err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["source"] = "mutated"
	if _, err := store.Put(ctx, "a/1", bytes.NewReader([]byte("two")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	info, err := store.Head(ctx, "a/1")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Metadata["source"] != "upload" || info.Size != 3 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "b/1", bytes.NewReader(nil), core.PutOptions{}); err != nil {
		t.Fatalf("put b: %v", err)
	}
	list, _ := store.List(ctx, "a/")
	if len(list) != 1 || list[0].Key != "a/1" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, _, err := store.Get(ctx, "zzz"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
