// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build darwin || linux

package shm

import (
	"os"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// memoryObject is an open descriptor of a named object.
// The name is kept as given by the user, the platform path is built from it on demand.
type memoryObject struct {
	name string
	file *os.File
}

func newMemoryObject(name string, flag int, perm os.FileMode) (*memoryObject, error) {
	path, err := shmName(name)
	if err != nil {
		return nil, err
	}
	file, err := shmOpen(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return &memoryObject{name: strings.TrimLeft(name, "/"), file: file}, nil
}

// Destroy closes the descriptor and unlinks the object.
func (obj *memoryObject) Destroy() error {
	if err := obj.Close(); err != nil {
		return err
	}
	return destroyMemoryObject(obj.name)
}

func (obj *memoryObject) Name() string {
	return obj.name
}

// Close closes the descriptor. Closing it twice is not an error.
func (obj *memoryObject) Close() error {
	err := obj.file.Close()
	switch {
	case err == nil, errors.Is(err, os.ErrClosed):
		return nil
	case runtime.GOOS == "darwin" && obj.Size() == 0:
		// darwin fails closing descriptors of objects, which have never been resized.
		return nil
	}
	return err
}

func (obj *memoryObject) Truncate(size int64) error {
	return obj.file.Truncate(size)
}

// Size returns the object's size, or 0, if it can't be obtained.
func (obj *memoryObject) Size() int64 {
	fi, err := obj.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

func (obj *memoryObject) Stat() (os.FileInfo, error) {
	return obj.file.Stat()
}

func (obj *memoryObject) Fd() uintptr {
	return obj.file.Fd()
}

func destroyMemoryObject(name string) error {
	path, err := shmName(name)
	if err != nil {
		return err
	}
	return doDestroyMemoryObject(path)
}
