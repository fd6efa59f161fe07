package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Blob.Driver != "fs" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Import.Atomic || cfg.Import.LinkOwners {
		t.Fatalf("atomic ingestion and owner linking are opt-in")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "breederbook.yaml")
	body := `self_owner: Sam
storage:
  driver: memory
blob:
  driver: s3
  s3:
    bucket: rats
import:
  atomic: true
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path, envMap(map[string]string{
		"BREEDERBOOK_SELF_OWNER":         "Alex",
		"BREEDERBOOK_IMPORT_LINK_OWNERS": "true",
		"BREEDERBOOK_BLOB_S3_ENDPOINT":   "http://minio:9000",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SelfOwner != "Alex" {
		t.Fatalf("expected env to win, got %q", cfg.SelfOwner)
	}
	if cfg.Storage.Driver != "memory" || cfg.Blob.S3.Bucket != "rats" || cfg.Blob.S3.Region != "us-east-1" {
		t.Fatalf("unexpected file values %+v", cfg)
	}
	if !cfg.Import.Atomic || !cfg.Import.LinkOwners || cfg.Blob.S3.Endpoint != "http://minio:9000" {
		t.Fatalf("unexpected overlay %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load("", envMap(map[string]string{
		"BREEDERBOOK_STORAGE_DRIVER": "postgres",
		"BREEDERBOOK_BLOB_DRIVER":    "s3",
		"BREEDERBOOK_LOG_LEVEL":      "loud",
	}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"postgres_dsn", "blob.s3.bucket", "log level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestLoadRejectsBadBool(t *testing.T) {
	if _, err := Load("", envMap(map[string]string{"BREEDERBOOK_IMPORT_ATOMIC": "sometimes"})); err == nil {
		t.Fatalf("expected bool parse error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), envMap(nil)); err == nil {
		t.Fatalf("expected read error")
	}
}
