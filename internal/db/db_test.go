package db

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Test Fixtures and Helpers

// NewTestDB creates an in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := db.InitSchema(context.Background()); err != nil {
		db.Close()
		t.Fatalf("failed to initialize test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// MakeTestStore creates a store with default test values
func MakeTestStore(id string) *Store {
	return &Store{
		ID:          id,
		UserID:      "user-" + id,
		Platform:    PlatformShopify,
		StoreURL:    "https://" + id + ".example.com",
		StoreName:   "Test Store " + id,
		ShopDomain:  id + ".myshopify.com",
		AccessToken: "shpat_test_" + id,
	}
}

// SeedTestStore inserts a store and returns it
func SeedTestStore(t *testing.T, db *DB, id string) *Store {
	t.Helper()

	store := MakeTestStore(id)
	if err := db.CreateStore(context.Background(), store); err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
	return store
}

func TestOpen(t *testing.T) {
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if db.Driver() != "sqlite3" {
		t.Errorf("Driver() = %q, want sqlite3", db.Driver())
	}
}

func TestOpenWithConfig(t *testing.T) {
	db, err := OpenWithConfig(Config{
		Driver:       "sqlite3",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("OpenWithConfig failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestInitSchema_Idempotent(t *testing.T) {
	db := NewTestDB(t)

	// Running the schema a second time must be a no-op
	if err := db.InitSchema(context.Background()); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestRebind(t *testing.T) {
	sqlite := &DB{driver: "sqlite3"}
	pgx := &DB{driver: "pgx"}

	query := "INSERT INTO t (a, b, c) VALUES (?, ?, ?)"

	if got := sqlite.rebind(query); got != query {
		t.Errorf("sqlite rebind changed query: %q", got)
	}

	want := "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"
	if got := pgx.rebind(query); got != want {
		t.Errorf("pgx rebind = %q, want %q", got, want)
	}
}

func TestCreateStore(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	store := MakeTestStore("store-1")
	if err := db.CreateStore(ctx, store); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	got, err := db.GetStore(ctx, "store-1")
	if err != nil {
		t.Fatalf("GetStore failed: %v", err)
	}
	if got.ShopDomain != "store-1.myshopify.com" {
		t.Errorf("ShopDomain = %q", got.ShopDomain)
	}
	if got.SyncStatus != JobStatusPending {
		t.Errorf("SyncStatus = %q, want pending", got.SyncStatus)
	}
	if got.SyncFrequency != "daily" {
		t.Errorf("SyncFrequency = %q, want daily", got.SyncFrequency)
	}
	if got.LastSync != nil {
		t.Errorf("LastSync = %v, want nil", got.LastSync)
	}
}

func TestCreateStore_GeneratesID(t *testing.T) {
	db := NewTestDB(t)

	store := MakeTestStore("")
	store.ID = ""
	if err := db.CreateStore(context.Background(), store); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}
	if store.ID == "" {
		t.Error("CreateStore did not assign an id")
	}
}

func TestGetStore_NotFound(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.GetStore(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetStore error = %v, want ErrNotFound", err)
	}
}

func TestGetStoreByDomain(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	got, err := db.GetStoreByDomain(ctx, "store-1.myshopify.com")
	if err != nil {
		t.Fatalf("GetStoreByDomain failed: %v", err)
	}
	if got.ID != "store-1" {
		t.Errorf("ID = %q, want store-1", got.ID)
	}

	if _, err := db.GetStoreByDomain(ctx, "other.myshopify.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown domain error = %v, want ErrNotFound", err)
	}
}

func TestMarkStoreSynced(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := db.MarkStoreSynced(ctx, "store-1", when); err != nil {
		t.Fatalf("MarkStoreSynced failed: %v", err)
	}

	got, err := db.GetStore(ctx, "store-1")
	if err != nil {
		t.Fatalf("GetStore failed: %v", err)
	}
	if got.SyncStatus != JobStatusCompleted {
		t.Errorf("SyncStatus = %q, want completed", got.SyncStatus)
	}
	if got.LastSync == nil || !got.LastSync.Equal(when) {
		t.Errorf("LastSync = %v, want %v", got.LastSync, when)
	}
}

func TestUpdateStoreSyncStatus_NotFound(t *testing.T) {
	db := NewTestDB(t)

	err := db.UpdateStoreSyncStatus(context.Background(), "missing", JobStatusProcessing)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListStoresDueForSync(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	// Never synced, auto sync on: due.
	neverSynced := MakeTestStore("due-never")
	neverSynced.AutoSyncEnabled = true
	if err := db.CreateStore(ctx, neverSynced); err != nil {
		t.Fatal(err)
	}

	// Synced two days ago with daily frequency: due.
	stale := MakeTestStore("due-stale")
	stale.AutoSyncEnabled = true
	twoDaysAgo := now.Add(-48 * time.Hour)
	stale.LastSync = &twoDaysAgo
	if err := db.CreateStore(ctx, stale); err != nil {
		t.Fatal(err)
	}

	// Synced an hour ago with daily frequency: not due.
	fresh := MakeTestStore("fresh")
	fresh.AutoSyncEnabled = true
	hourAgo := now.Add(-time.Hour)
	fresh.LastSync = &hourAgo
	if err := db.CreateStore(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	// Auto sync disabled: never due.
	disabled := MakeTestStore("disabled")
	oldSync := now.Add(-30 * 24 * time.Hour)
	disabled.LastSync = &oldSync
	if err := db.CreateStore(ctx, disabled); err != nil {
		t.Fatal(err)
	}

	// Currently syncing: skipped even if stale.
	busy := MakeTestStore("busy")
	busy.AutoSyncEnabled = true
	busy.LastSync = &oldSync
	if err := db.CreateStore(ctx, busy); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateStoreSyncStatus(ctx, "busy", JobStatusProcessing); err != nil {
		t.Fatal(err)
	}

	due, err := db.ListStoresDueForSync(ctx, now)
	if err != nil {
		t.Fatalf("ListStoresDueForSync failed: %v", err)
	}

	ids := map[string]bool{}
	for _, s := range due {
		ids[s.ID] = true
	}
	if len(due) != 2 || !ids["due-never"] || !ids["due-stale"] {
		t.Errorf("due stores = %v, want [due-never due-stale]", ids)
	}
}

func TestSyncInterval(t *testing.T) {
	cases := []struct {
		frequency string
		want      time.Duration
	}{
		{"hourly", time.Hour},
		{"daily", 24 * time.Hour},
		{"weekly", 7 * 24 * time.Hour},
		{"", 24 * time.Hour},
		{"unknown", 24 * time.Hour},
	}

	for _, tc := range cases {
		if got := syncInterval(tc.frequency); got != tc.want {
			t.Errorf("syncInterval(%q) = %v, want %v", tc.frequency, got, tc.want)
		}
	}
}

func TestStoreResourceCounts_Empty(t *testing.T) {
	db := NewTestDB(t)

	SeedTestStore(t, db, "store-1")

	counts, err := db.StoreResourceCounts(context.Background(), "store-1")
	if err != nil {
		t.Fatalf("StoreResourceCounts failed: %v", err)
	}
	if counts != (ResourceCounts{}) {
		t.Errorf("counts = %+v, want all zero", counts)
	}
}

func TestWithTransaction_Success(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	err := db.WithTransaction(func(tx *Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE stores SET store_name = ? WHERE id = ?", "Renamed", "store-1")
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	got, err := db.GetStore(ctx, "store-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.StoreName != "Renamed" {
		t.Errorf("StoreName = %q, want Renamed", got.StoreName)
	}
}

func TestWithTransaction_Rollback(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	wantErr := errors.New("boom")
	err := db.WithTransaction(func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE stores SET store_name = ? WHERE id = ?", "Renamed", "store-1"); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithTransaction error = %v, want %v", err, wantErr)
	}

	got, err := db.GetStore(ctx, "store-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.StoreName == "Renamed" {
		t.Error("rollback did not undo the update")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrNotFound) {
		t.Error("IsNotFound(ErrNotFound) = false")
	}
	if IsNotFound(errors.New("other")) {
		t.Error("IsNotFound(other) = true")
	}
}

func TestIsDuplicate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	SeedTestStore(t, db, "store-1")

	err := db.CreateStore(ctx, MakeTestStore("store-1"))
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !IsDuplicate(err) {
		t.Errorf("IsDuplicate(%v) = false", err)
	}
}
