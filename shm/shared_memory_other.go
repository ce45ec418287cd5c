// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build !darwin && !linux

package shm

import (
	"os"

	"github.com/pkg/errors"
)

var errUnsupported = errors.New("shared memory objects are not supported on this platform")

type memoryObject struct{}

func newMemoryObject(name string, flag int, perm os.FileMode) (*memoryObject, error) {
	return nil, errUnsupported
}

func (obj *memoryObject) Destroy() error             { return errUnsupported }
func (obj *memoryObject) Name() string               { return "" }
func (obj *memoryObject) Close() error               { return nil }
func (obj *memoryObject) Truncate(size int64) error  { return errUnsupported }
func (obj *memoryObject) Size() int64                { return 0 }
func (obj *memoryObject) Stat() (os.FileInfo, error) { return nil, errUnsupported }
func (obj *memoryObject) Fd() uintptr                { return ^uintptr(0) }
func destroyMemoryObject(name string) error          { return errUnsupported }
