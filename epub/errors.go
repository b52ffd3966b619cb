package epub

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the epub package.
var (
	// ErrIncomplete indicates a package violates an assembly invariant.
	// Errors of type *IncompleteEpubError match it.
	ErrIncomplete = errors.New("epub: incomplete package")

	// ErrDuplicateItem indicates a manifest id or href was added twice.
	ErrDuplicateItem = errors.New("epub: duplicate manifest item")

	// ErrInvalidEPub indicates the file is not a valid ePub
	// (e.g., missing container.xml and no .opf file found).
	ErrInvalidEPub = errors.New("epub: invalid ePub file")

	// ErrFileNotFound indicates the requested file does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")
)

// IncompleteEpubError lists the invariants a package violates. No archive
// is written for an incomplete package.
type IncompleteEpubError struct {
	Problems []string
}

func (e *IncompleteEpubError) Error() string {
	return "epub: incomplete package: " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrIncomplete) hold.
func (e *IncompleteEpubError) Is(target error) bool {
	return target == ErrIncomplete
}
