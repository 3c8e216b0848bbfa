package bundle

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSource is returned when a function directory or entry file does not exist.
	ErrMissingSource = errors.New("missing source path")
	// ErrCopy is matched by every *CopyError.
	ErrCopy = errors.New("copy failed")
	// ErrDestinationConflict is returned when two source files would land on the same bundle path.
	ErrDestinationConflict = errors.New("destination conflict")
)

// CopyError reports a file that could not be copied or written into a bundle.
type CopyError struct {
	Source string
	Dest   string
	Err    error
}

func (e *CopyError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to write %s: %v", e.Dest, e.Err)
	}
	return fmt.Sprintf("failed to copy %s to %s: %v", e.Source, e.Dest, e.Err)
}

func (e *CopyError) Unwrap() error {
	return e.Err
}

func (e *CopyError) Is(target error) bool {
	return target == ErrCopy
}
