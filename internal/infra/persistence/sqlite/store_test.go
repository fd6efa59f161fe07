package sqlite

import (
	"breederbook/pkg/domain"
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		owner, err := tx.CreateOwner(domain.Owner{Name: "Morgan"})
		if err != nil {
			return err
		}
		_, err = tx.CreateAnimal(domain.Animal{Name: "Persist", Sex: domain.SexMale, OwnerID: &owner.ID})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	animals := reloaded.ListAnimals()
	if len(animals) != 1 || animals[0].Name != "Persist" {
		t.Fatalf("expected persisted animal, got %+v", animals)
	}
	if animals[0].OwnerID == nil {
		t.Fatalf("expected owner link to survive reload")
	}
	if got := len(reloaded.ListOwners()); got != 1 {
		t.Fatalf("expected 1 owner, got %d", got)
	}
}

func TestSQLiteStoreCreatesStateTable(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	var name string
	if err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", "state").Scan(&name); err != nil {
		t.Fatalf("lookup state table: %v", err)
	}
	if name != "state" {
		t.Fatalf("expected state table, got %s", name)
	}
}

func TestSQLiteStoreFailedTransactionNotPersisted(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.AttachDam("missing", "missing")
		return err
	})
	if err == nil {
		t.Fatalf("expected not found error")
	}
	var count int
	if err := store.DB().QueryRow("SELECT COUNT(*) FROM state").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no snapshot rows, got %d", count)
	}
}

func TestSQLiteStoreRestoresMemoryWhenSnapshotFails(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), nil)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateOwner(domain.Owner{Name: "Kept"})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.DB().Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}
	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateOwner(domain.Owner{Name: "Lost"})
		return err
	})
	if err == nil {
		t.Fatalf("expected snapshot failure")
	}
	owners := store.ListOwners()
	if len(owners) != 1 || owners[0].Name != "Kept" {
		t.Fatalf("expected memory restored to the last snapshot, got %+v", owners)
	}
}
