// Package dberr holds the failure kinds shared by every layer of the engine.
// Package-level errors wrap one of these so callers can test with errors.Is.
package dberr

import "errors"

var (
	ErrNotFound       = errors.New("microdb: not found")
	ErrAlreadyExists  = errors.New("microdb: already exists")
	ErrSchemaMismatch = errors.New("microdb: schema mismatch")
	ErrValueTooLarge  = errors.New("microdb: value too large")
	ErrIO             = errors.New("microdb: I/O failure")
	ErrCorruption     = errors.New("microdb: corruption")
)

// Recoverable reports whether err leaves engine state untouched, so a
// session can carry on after it. I/O and corruption failures do not.
func Recoverable(err error) bool {
	return err != nil && !errors.Is(err, ErrIO) && !errors.Is(err, ErrCorruption)
}
