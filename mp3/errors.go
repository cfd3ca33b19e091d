package mp3

import (
	"errors"
	"fmt"
)

// Error kinds reported by the codec. Match them with errors.Is.
var (
	ErrUnreadableFormat     = errors.New("unreadable format")
	ErrCorruptTag           = errors.New("corrupt tag")
	ErrUnsupportedContainer = errors.New("unsupported container")
	ErrWriteFailure         = errors.New("write failure")
	ErrFieldWriteSkipped    = errors.New("field write skipped")
)

// CodecError carries one of the error kinds plus a human readable reason.
type CodecError struct {
	Kind   error
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *CodecError) Unwrap() error {
	return e.Kind
}

func codecErrorf(kind error, format string, args ...any) error {
	return &CodecError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// FieldError reports a field that could not be written. The frame on disk
// keeps its previous content.
type FieldError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s=%q skipped: %s", e.Field, e.Value, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrFieldWriteSkipped
}
