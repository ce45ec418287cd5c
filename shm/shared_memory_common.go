// Copyright 2015 Aleksandr Demakin. All rights reserved.

package shm

import (
	"os"

	"github.com/nxgtw/go-shmbox/mmf"
)

// this is to ensure, that all implementations of shm-related structs
// satisfy the same minimal interface
var (
	_ iSharedMemoryObject = (*MemoryObject)(nil)
)

type iSharedMemoryObject interface {
	Name() string
	Size() int64
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
	Close() error
	Destroy() error
	mmf.Mappable
}
