package blob

import (
	"breederbook/internal/config"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	fsStore, err := Open(ctx, config.Blob{Root: t.TempDir()})
	if err != nil || fsStore.Driver() != DriverFilesystem {
		t.Fatalf("default driver: %v %v", err, fsStore)
	}
	mem, err := Open(ctx, config.Blob{Driver: "memory"})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("memory driver: %v", err)
	}
	s3, err := Open(ctx, config.Blob{Driver: "s3", S3: config.S3{Bucket: "docs", AccessKeyID: "a", SecretAccessKey: "b"}})
	if err != nil || s3.Driver() != DriverS3 {
		t.Fatalf("s3 driver: %v", err)
	}
	if _, err := Open(ctx, config.Blob{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestPutJSONAndReadAll(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.Blob{Driver: "memory"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := PutJSON(ctx, store, "reports/r1.json", map[string]int{"animals": 3}); err != nil {
		t.Fatalf("put json: %v", err)
	}
	b, err := ReadAll(ctx, store, "reports/r1.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]int
	if err := json.Unmarshal(b, &got); err != nil || got["animals"] != 3 {
		t.Fatalf("unexpected document %s: %v", b, err)
	}
	if _, err := ReadAll(ctx, store, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
