// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build darwin || linux

package mmf

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type memoryRegion struct {
	data []byte
	mode Mode
}

func newMemoryRegion(obj Mappable, mode Mode, size int) (*memoryRegion, error) {
	prot, err := mode.prot()
	if err != nil {
		return nil, err
	}
	if size, err = mappingSize(obj, size); err != nil {
		return nil, errors.Wrap(err, "size check failed")
	}
	data, err := unix.Mmap(int(obj.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap of %d bytes failed", size)
	}
	return &memoryRegion{data: data, mode: mode}, nil
}

func (region *memoryRegion) Close() error {
	if region.data == nil {
		return nil
	}
	data := region.data
	region.data = nil
	return errors.Wrap(unix.Munmap(data), "munmap failed")
}

func (region *memoryRegion) Flush(async bool) error {
	if region.data == nil {
		return errors.New("flush on a closed region")
	}
	flag := unix.MS_SYNC
	if async {
		flag = unix.MS_ASYNC
	}
	return errors.Wrap(unix.Msync(region.data, flag), "msync failed")
}

func (m Mode) prot() (int, error) {
	switch m {
	case ModeReadOnly:
		return unix.PROT_READ, nil
	case ModeReadWrite:
		return unix.PROT_READ | unix.PROT_WRITE, nil
	}
	return 0, errors.Errorf("invalid memory region mode %d", int(m))
}
