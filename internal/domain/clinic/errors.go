package clinic

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by storage when no row matches the requested key.
var ErrNotFound = errors.New("not found")

type StorageErrorKind string

const (
	KindConflict         StorageErrorKind = "conflict"
	KindInvalidReference StorageErrorKind = "invalid_reference"
	KindBackend          StorageErrorKind = "backend"
)

// StorageError wraps a failure reported by the backing store.
type StorageError struct {
	Op   string
	Kind StorageErrorKind
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ValidationError reports input that does not satisfy an entity's rules.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return e.Field + " " + e.Reason
}

// storageErr maps pgx errors onto ErrNotFound or a classified *StorageError.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	kind := KindBackend
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			kind = KindConflict
		case "23503":
			kind = KindInvalidReference
		}
	}
	return &StorageError{Op: op, Kind: kind, Err: err}
}
