package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"listmgmt/pkg/platform/sentinel"
)

// Classify tags a driver error with the matching sentinel so callers can
// reason about it without importing driver packages. Context errors and
// unknown errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifySQLState(string(pqErr.Code), err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
				return fmt.Errorf("%w: %w", sentinel.ErrAlreadyExists, err)
			}
			return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}

func classifySQLState(code string, err error) error {
	if code == "23505" {
		return fmt.Errorf("%w: %w", sentinel.ErrAlreadyExists, err)
	}
	if len(code) < 2 {
		return err
	}
	switch code[:2] {
	case "23", "40":
		// integrity violations, serialization failures, deadlocks
		return fmt.Errorf("%w: %w", sentinel.ErrConflict, err)
	case "08", "53", "57":
		// connection exceptions, insufficient resources, operator intervention
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return err
}
