package editor

import (
	"errors"
	"fmt"
	"strings"

	"tagbatch/mp3"
)

var (
	ErrNameConflict = errors.New("a file with that name already exists")
	ErrRenameInUse  = errors.New("file could not be renamed, it may be in use")

	// ErrInvalidArgument marks a caller bug such as an empty path or a
	// record that does not belong to the session. It is never a data or
	// I/O error.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Codec error kinds, re-exported so shells need not import mp3.
var (
	ErrUnreadableFormat     = mp3.ErrUnreadableFormat
	ErrCorruptTag           = mp3.ErrCorruptTag
	ErrUnsupportedContainer = mp3.ErrUnsupportedContainer
	ErrWriteFailure         = mp3.ErrWriteFailure
	ErrFieldWriteSkipped    = mp3.ErrFieldWriteSkipped
)

// FileError ties a failure to the file and operation it happened in.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// LoadResult reports a LoadFiles or LoadFolder call.
type LoadResult struct {
	Loaded int
	// Skipped counts paths that were already loaded.
	Skipped  int
	Failures []*FileError
}

func (r LoadResult) String() string {
	s := fmt.Sprintf("%d loaded", r.Loaded)
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d already loaded", r.Skipped)
	}
	if len(r.Failures) > 0 {
		s += fmt.Sprintf(", %d failed", len(r.Failures))
	}
	return s
}

// BatchResult reports a save over several files. Warnings are fields that
// were skipped in files that were otherwise saved.
type BatchResult struct {
	Attempted int
	Succeeded int
	Failures  []*FileError
	Warnings  []*FileError
}

func (r BatchResult) OK() bool {
	return r.Succeeded == r.Attempted
}

func (r BatchResult) String() string {
	return fmt.Sprintf("%d of %d succeeded", r.Succeeded, r.Attempted)
}

// Summary is String followed by one line per failure and warning.
func (r BatchResult) Summary() string {
	var b strings.Builder
	b.WriteString(r.String())
	for _, f := range r.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	for _, w := range r.Warnings {
		b.WriteString("\n  warning: ")
		b.WriteString(w.Error())
	}
	return b.String()
}
