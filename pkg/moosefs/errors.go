package moosefs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable matches collection errors caused by a failed query.
	ErrUnreachable = errors.New("moosefs master unreachable")
	// ErrMalformed matches collection errors caused by unparseable output.
	ErrMalformed = errors.New("malformed moosefs output")
)

// ErrorKind classifies a CollectionError.
type ErrorKind string

const (
	KindUnreachable ErrorKind = "unreachable"
	KindMalformed   ErrorKind = "malformed"
)

// CollectionError reports why a status section could not be collected.
type CollectionError struct {
	Section Section
	Kind    ErrorKind
	Err     error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("moosefs %s: %s: %v", e.Section, e.Kind, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrUnreachable and ErrMalformed by kind.
func (e *CollectionError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}

func unreachable(section Section, err error) *CollectionError {
	return &CollectionError{Section: section, Kind: KindUnreachable, Err: err}
}

func malformed(section Section, format string, args ...any) *CollectionError {
	return &CollectionError{Section: section, Kind: KindMalformed, Err: fmt.Errorf(format, args...)}
}
