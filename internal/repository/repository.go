// Package repository provides database access for domain entities.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when the requested row does not exist for the tenant.
var ErrNotFound = errors.New("not found")

// notFound maps pgx.ErrNoRows to ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// rowScanner is the subset of pgx.Rows used by the scan helpers.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}
