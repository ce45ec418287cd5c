// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

import (
	"context"
	"fmt"

	"github.com/nxgtw/go-shmbox/shm"

	"github.com/pkg/errors"
)

var (
	// ErrNameInvalid is returned for malformed or unusable segment names.
	ErrNameInvalid = errors.New("invalid segment name")
	// ErrSizeNotSpecified is returned when a segment has to be created, but no size was given.
	ErrSizeNotSpecified = errors.New("segment size not specified")
	// ErrSizeMismatch is returned when the size of an existing segment can't satisfy the request.
	ErrSizeMismatch = errors.New("segment size mismatch")
	// ErrPayloadType is returned by BoxedChecked for types, which can't be placed into shared memory.
	ErrPayloadType = errors.New("type can't be placed into shared memory")
	// ErrAlreadyBoxed is returned by BoxedChecked for a segment, that already has a box.
	ErrAlreadyBoxed = errors.New("segment is already boxed")
)

// PlatformError wraps a failure of the underlying OS layer.
type PlatformError struct {
	Op   string
	Name string
	Err  error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying OS error.
func (e *PlatformError) Unwrap() error { return e.Err }

// Cause is to be compatible with errors.Cause.
func (e *PlatformError) Cause() error { return e.Err }

func translateError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNameInvalid),
		errors.Is(err, ErrSizeNotSpecified),
		errors.Is(err, ErrSizeMismatch),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, shm.ErrInvalidName):
		return errors.Wrapf(ErrNameInvalid, "%q", name)
	}
	return &PlatformError{Op: op, Name: name, Err: err}
}
