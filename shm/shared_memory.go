// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

import (
	"os"
	"runtime"

	"github.com/nxgtw/go-shmbox/internal/common"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// ErrInvalidName is returned for names, that can't be used for shared memory objects.
var ErrInvalidName = errors.New("invalid shm name")

// MemoryObject represents an object which can be used to
// map shared memory regions into the process' address space
type MemoryObject struct {
	*memoryObject
}

// NewMemoryObject creates or opens a shared memory object.
// name - a name of the object. should not contain '/' and exceed 255 symbols
// flag - os.O_* flags
// perm - file's mode and permission bits.
func NewMemoryObject(name string, flag int, perm os.FileMode) (*MemoryObject, error) {
	impl, err := newMemoryObject(name, flag, perm)
	if err != nil {
		return nil, err
	}
	result := &MemoryObject{impl}
	runtime.SetFinalizer(impl, func(memObject *memoryObject) {
		memObject.Close()
	})
	return result, nil
}

// NewMemoryObjectSize opens or creates a shared memory object with the given size.
// If the object was created, it is truncated to 'size' bytes. Its actual size is
// not checked if the object was opened.
// The creation mode is taken from the flag:
//
//	os.O_CREATE|os.O_EXCL - create only.
//	os.O_CREATE - create, or open if the object already exists. If the object is
//	removed between the attempts, new attempts are made according to the policy.
//	no create flags - open only.
//
// policy may be nil, in which case the default one is used.
// It returns true, if the object was created by this call.
func NewMemoryObjectSize(name string, flag int, perm os.FileMode, size int64, policy backoff.BackOff) (*MemoryObject, bool, error) {
	if size < 0 {
		return nil, false, errors.Errorf("invalid object size %d", size)
	}
	accessFlag := flag &^ (os.O_CREATE | os.O_EXCL | os.O_TRUNC)
	var obj *MemoryObject
	creator := func(create bool) error {
		if !create {
			var err error
			obj, err = NewMemoryObject(name, accessFlag, perm)
			return err
		}
		created, err := NewMemoryObject(name, accessFlag|os.O_CREATE|os.O_EXCL, perm)
		if err != nil {
			return err
		}
		if err = created.Truncate(size); err != nil {
			created.Destroy()
			return errors.Wrap(err, "failed to resize shared memory object")
		}
		obj = created
		return nil
	}
	var created bool
	var err error
	switch {
	case flag&os.O_CREATE == 0:
		err = creator(false)
	case flag&os.O_EXCL != 0:
		if err = creator(true); err == nil {
			created = true
		}
	default:
		created, err = common.OpenOrCreate(creator, policy)
	}
	if err != nil {
		return nil, false, err
	}
	return obj, created, nil
}

// DestroyMemoryObject permanently removes given memory object.
// It is not an error, if the object doesn't exist.
func DestroyMemoryObject(name string) error {
	return destroyMemoryObject(name)
}
