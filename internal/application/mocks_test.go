package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mockCredentialStore ---

type mockCredentialStore struct {
	mu          sync.Mutex
	users       map[string]string
	registerErr error
}

var _ driven.CredentialStore = (*mockCredentialStore)(nil)

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{users: make(map[string]string)}
}

func (m *mockCredentialStore) Exists(_ context.Context, username string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok
}

func (m *mockCredentialStore) Register(_ context.Context, username, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registerErr != nil {
		return m.registerErr
	}
	if _, ok := m.users[username]; ok {
		return model.ErrDuplicateUser
	}
	m.users[username] = password
	return nil
}

func (m *mockCredentialStore) Verify(_ context.Context, username, password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[username]
	return ok && stored == password
}

// --- mockTable ---

type mockTable struct {
	mu        sync.Mutex
	rows      [][]string
	appendErr error
	valuesErr error
	reads     int
}

var _ driven.Table = (*mockTable)(nil)

func newMockTableWithHeader() *mockTable {
	return &mockTable{rows: [][]string{append([]string(nil), model.Columns...)}}
}

func (m *mockTable) AppendRow(_ context.Context, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows = append(m.rows, append([]string(nil), cells...))
	return nil
}

func (m *mockTable) Values(_ context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.valuesErr != nil {
		return nil, m.valuesErr
	}
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// --- mockConnector ---

type mockConnector struct {
	mu       sync.Mutex
	table    driven.Table
	err      error
	connects int
}

var _ driven.TableConnector = (*mockConnector)(nil)

var errUnreachable = errors.New("spreadsheet unreachable")

func (m *mockConnector) Connect(_ context.Context) (driven.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	if m.err != nil {
		return nil, m.err
	}
	return m.table, nil
}

func (m *mockConnector) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockConnector) connectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}
