package credstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
	"github.com/yndnr/chatmesh-go/pkg/crypto/seal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStoreKey() []byte {
	key := make([]byte, seal.KeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}
	return key
}

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	store, err := Open(Options{Dir: dir, Key: testStoreKey()}, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestStoreRememberListForget(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("List() = %v on empty store, want none", ids)
	}

	for _, id := range []string{"alice", "bob"} {
		if err := store.Remember(ctx, id); err != nil {
			t.Fatalf("Remember(%q) error = %v", id, err)
		}
	}

	ids, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "alice" || ids[1] != "bob" {
		t.Fatalf("List() = %v, want [alice bob]", ids)
	}

	if err := store.Forget(ctx, "alice"); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	ids, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "bob" {
		t.Fatalf("List() after forget = %v, want [bob]", ids)
	}

	// Forgetting an unknown client is a no-op.
	if err := store.Forget(ctx, "ghost"); err != nil {
		t.Errorf("Forget(ghost) error = %v", err)
	}
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	if _, err := store.Load(ctx, "alice"); !errors.Is(err, ErrNotRemembered) {
		t.Fatalf("Load() error = %v, want ErrNotRemembered", err)
	}

	if err := store.Remember(ctx, "alice"); err != nil {
		t.Fatalf("Remember() error = %v", err)
	}
	record, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if record.ClientID != "alice" {
		t.Errorf("record client id = %q, want %q", record.ClientID, "alice")
	}
	if record.RememberedAt == 0 {
		t.Error("record RememberedAt is zero")
	}
}

func TestStoreRecordsAreSealed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := openTestStore(t, dir)

	if err := store.Remember(ctx, "alice"); err != nil {
		t.Fatalf("Remember() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "alice", recordFile))
	if err != nil {
		t.Fatalf("reading record file: %v", err)
	}
	if bytes.Contains(raw, []byte("alice")) {
		t.Error("record file contains the client id in the clear")
	}
}

func TestStoreRecordBoundToClientDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := openTestStore(t, dir)

	if err := store.Remember(ctx, "alice"); err != nil {
		t.Fatalf("Remember() error = %v", err)
	}

	// Move alice's record into bob's directory: the aad binding makes it
	// unreadable there, and List skips it.
	if err := os.MkdirAll(filepath.Join(dir, "bob"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(
		filepath.Join(dir, "alice", recordFile),
		filepath.Join(dir, "bob", recordFile),
	); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(ctx, "bob"); err == nil {
		t.Fatal("Load() succeeded on a record sealed for another client")
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("List() = %v, want none", ids)
	}
}

func TestStorePassphraseReopens(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := Open(Options{Dir: dir, Passphrase: []byte("correct horse battery")}, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := first.Remember(ctx, "alice"); err != nil {
		t.Fatalf("Remember() error = %v", err)
	}

	// Same passphrase reopens the store through the persisted salt.
	second, err := Open(Options{Dir: dir, Passphrase: []byte("correct horse battery")}, testLogger())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	if _, err := second.Load(ctx, "alice"); err != nil {
		t.Fatalf("Load() after reopen error = %v", err)
	}

	// A different passphrase cannot open the records.
	wrong, err := Open(Options{Dir: dir, Passphrase: []byte("incorrect zebra battery")}, testLogger())
	if err != nil {
		t.Fatalf("Open() with other passphrase error = %v", err)
	}
	if _, err := wrong.Load(ctx, "alice"); err == nil {
		t.Fatal("Load() succeeded with the wrong passphrase")
	}
}

func TestStoreRejectsUnsafeClientIDs(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if err := store.Remember(ctx, id); !errors.Is(err, domain.ErrSessionValidation) {
			t.Errorf("Remember(%q) error = %v, want ErrSessionValidation", id, err)
		}
	}
}

func TestOpenRequiresKeyMaterial(t *testing.T) {
	if _, err := Open(Options{Dir: t.TempDir()}, testLogger()); err == nil {
		t.Fatal("Open() without key material succeeded")
	}
	if _, err := Open(Options{Dir: t.TempDir(), Key: []byte("short")}, testLogger()); err == nil {
		t.Fatal("Open() with short key succeeded")
	}
}
