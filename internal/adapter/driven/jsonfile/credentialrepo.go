// Package jsonfile implements the CredentialStore port on a single JSON file.
//
// The file holds one JSON object mapping usernames to password hashes. It is
// read once on Load and rewritten in full on every registration. Writers in
// other processes are not coordinated with.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the JSON file implementation of the CredentialStore port.
type CredentialRepo struct {
	path   string
	hasher driven.PasswordHasher

	mu    sync.Mutex
	users map[string]string // username -> password hash
}

// NewCredentialRepo creates an empty CredentialRepo backed by path. Call Load
// to read an existing snapshot.
func NewCredentialRepo(path string, hasher driven.PasswordHasher) *CredentialRepo {
	return &CredentialRepo{
		path:   path,
		hasher: hasher,
		users:  make(map[string]string),
	}
}

// Open creates a CredentialRepo and loads the snapshot at path.
func Open(path string, hasher driven.PasswordHasher) (*CredentialRepo, error) {
	r := NewCredentialRepo(path, hasher)
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load replaces the in-memory mapping with the snapshot on disk. A missing
// file yields an empty mapping. A file that exists but cannot be read or
// decoded is an error.
func (r *CredentialRepo) Load() error {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.mu.Lock()
		r.users = make(map[string]string)
		r.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read credential file %q: %w", r.path, err)
	}

	users := make(map[string]string)
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("decode credential file %q: %w", r.path, err)
	}
	if users == nil {
		// The file contained JSON null.
		users = make(map[string]string)
	}

	r.mu.Lock()
	r.users = users
	r.mu.Unlock()
	return nil
}

// Exists reports whether username is registered.
func (r *CredentialRepo) Exists(_ context.Context, username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok
}

// Register hashes password, inserts the user and rewrites the file. If the
// write fails the insert is undone.
func (r *CredentialRepo) Register(_ context.Context, username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; ok {
		return model.ErrDuplicateUser
	}

	hash, err := r.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	r.users[username] = hash
	if err := r.save(); err != nil {
		delete(r.users, username)
		return err
	}
	return nil
}

// Verify reports whether username exists and password matches its hash.
func (r *CredentialRepo) Verify(_ context.Context, username, password string) bool {
	r.mu.Lock()
	hash, ok := r.users[username]
	r.mu.Unlock()

	if !ok {
		return false
	}
	return r.hasher.Matches(hash, password)
}

// save writes the full mapping to a temp file in the target directory and
// renames it over the snapshot. Caller must hold r.mu.
func (r *CredentialRepo) save() error {
	data, err := json.Marshal(r.users)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace credential file %q: %w", r.path, err)
	}
	return nil
}
