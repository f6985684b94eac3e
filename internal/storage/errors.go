package storage

import "github.com/cockroachdb/errors"

var (
	// ErrPageFull is returned by SlottedPage.InsertTuple when the tuple and
	// its slot entry do not fit in the remaining free space.
	ErrPageFull = errors.New("page full")
	// ErrTupleTooLarge means a tuple can never fit on an empty page.
	ErrTupleTooLarge = errors.New("tuple too large for page")
	// ErrAllPinned is returned when the buffer pool has no eviction victim.
	ErrAllPinned = errors.New("all pages are pinned")
	// ErrTupleNotFound is returned for empty or out of range slots.
	ErrTupleNotFound = errors.New("tuple not found")
)
