package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateUser is returned when registering a username that already exists.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrInvalidCredentials is returned by login for an unknown user and for a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnauthenticated is returned when a meal operation is attempted from an
	// anonymous session.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrInvalidInput is returned for malformed user input (empty username,
	// unknown meal type, inverted date range, ...).
	ErrInvalidInput = errors.New("invalid input")
)

// ConnectionError reports that the meal table could not be opened, either
// because authorization failed or because the spreadsheet could not be found.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to meal table: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WriteError reports that appending a row to the meal table failed. The entry
// was not stored.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("append meal entry: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports that a scan of the meal table failed. Row is the 1-based
// spreadsheet row that could not be parsed, or 0 when the failure is not tied
// to a single row (fetch failure, empty table, bad header).
type ReadError struct {
	Row int
	Err error
}

func (e *ReadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("read meal table row %d: %v", e.Row, e.Err)
	}
	return fmt.Sprintf("read meal table: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
