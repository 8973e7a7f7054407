package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
	"github.com/yndnr/chatmesh-go/pkg/crypto/seal"
)

const (
	recordFile = "identity.bin"
	saltFile   = ".salt"

	// sealPurpose binds the sealing subkey to this store, so the same
	// configured secret can serve other concerns with different subkeys.
	sealPurpose = "chatmesh/identity-store"
)

// ErrNotRemembered indicates no identity record exists for the client.
var ErrNotRemembered = errors.New("credstore: client not remembered")

// Record is one remembered client identity.
type Record struct {
	ClientID     string `json:"client_id"`
	RememberedAt int64  `json:"remembered_at"`
}

// Options configures a store.
type Options struct {
	// Dir is the store root. Created if missing.
	Dir string

	// Key is the 32-byte master sealing key. Exclusive with Passphrase.
	Key []byte

	// Passphrase derives the master key with Argon2id. The salt lives in
	// the store root, so the same passphrase reopens the same store.
	Passphrase []byte
}

// Store is a file-backed identity store. Safe for concurrent use.
type Store struct {
	dir    string
	cipher seal.Cipher
	logger *slog.Logger

	mu sync.Mutex
}

// Open opens or initializes the store at Options.Dir.
func Open(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("credstore: dir is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("credstore: creating store dir: %w", err)
	}

	master, err := resolveMasterKey(opts)
	if err != nil {
		return nil, err
	}
	defer seal.Zero(master)

	subkey, err := seal.DeriveSubkey(master, sealPurpose)
	if err != nil {
		return nil, fmt.Errorf("credstore: deriving sealing key: %w", err)
	}
	cipher, err := seal.New(subkey)
	if err != nil {
		return nil, fmt.Errorf("credstore: creating cipher: %w", err)
	}

	return &Store{dir: opts.Dir, cipher: cipher, logger: logger}, nil
}

func resolveMasterKey(opts Options) ([]byte, error) {
	switch {
	case len(opts.Passphrase) > 0:
		salt, err := loadOrCreateSalt(filepath.Join(opts.Dir, saltFile))
		if err != nil {
			return nil, err
		}
		key, err := seal.DeriveKey(opts.Passphrase, salt)
		if err != nil {
			return nil, fmt.Errorf("credstore: deriving master key: %w", err)
		}
		return key, nil

	case len(opts.Key) == seal.KeySize:
		key := make([]byte, len(opts.Key))
		copy(key, opts.Key)
		return key, nil

	default:
		return nil, errors.New("credstore: either a 32-byte key or a passphrase is required")
	}
}

func loadOrCreateSalt(path string) ([]byte, error) {
	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != seal.SaltLength {
			return nil, fmt.Errorf("credstore: salt file %s has wrong length %d", path, len(salt))
		}
		return salt, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("credstore: reading salt: %w", err)
	}

	salt, err = seal.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("credstore: generating salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("credstore: writing salt: %w", err)
	}
	return salt, nil
}

// List returns the client ids with readable identity records. Records
// that fail to open are skipped with a warning instead of blocking the
// rest: one corrupt identity must not stop every other restoration.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("credstore: listing store dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		clientID := entry.Name()
		if _, err := s.loadLocked(clientID); err != nil {
			s.logger.Warn("skipping unreadable identity record",
				"client_id", clientID,
				"error", err)
			continue
		}
		ids = append(ids, clientID)
	}
	return ids, nil
}

// Remember writes or refreshes the client's identity record.
func (s *Store) Remember(ctx context.Context, clientID string) error {
	if err := domain.ValidateClientID(clientID); err != nil {
		return err
	}

	payload, err := json.Marshal(&Record{
		ClientID:     clientID,
		RememberedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("credstore: encoding record: %w", err)
	}

	box, err := s.cipher.Seal(payload, []byte(clientID))
	if err != nil {
		return fmt.Errorf("credstore: sealing record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clientDir := filepath.Join(s.dir, clientID)
	if err := os.MkdirAll(clientDir, 0o700); err != nil {
		return fmt.Errorf("credstore: creating client dir: %w", err)
	}
	return atomicWrite(filepath.Join(clientDir, recordFile), box)
}

// Forget removes the client's identity record. Forgetting an unknown
// client is a no-op.
func (s *Store) Forget(ctx context.Context, clientID string) error {
	if err := domain.ValidateClientID(clientID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.dir, clientID)); err != nil {
		return fmt.Errorf("credstore: removing client dir: %w", err)
	}
	return nil
}

// Load reads and opens the client's identity record.
func (s *Store) Load(ctx context.Context, clientID string) (*Record, error) {
	if err := domain.ValidateClientID(clientID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(clientID)
}

func (s *Store) loadLocked(clientID string) (*Record, error) {
	box, err := os.ReadFile(filepath.Join(s.dir, clientID, recordFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotRemembered
		}
		return nil, fmt.Errorf("credstore: reading record: %w", err)
	}

	payload, err := s.cipher.Open(box, []byte(clientID))
	if err != nil {
		return nil, fmt.Errorf("credstore: opening record for %s: %w", clientID, err)
	}

	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("credstore: decoding record: %w", err)
	}
	if record.ClientID != clientID {
		return nil, fmt.Errorf("credstore: record client id %q does not match directory %q", record.ClientID, clientID)
	}
	return &record, nil
}

// atomicWrite writes via a temp file and rename, so a crash mid-write
// never leaves a half-written record behind.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("credstore: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("credstore: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("credstore: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("credstore: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("credstore: renaming temp file: %w", err)
	}
	return nil
}
