// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build !darwin && !linux

package mmf

import (
	"github.com/pkg/errors"
)

var errUnsupported = errors.New("memory regions are not supported on this platform")

type memoryRegion struct {
	data []byte
	mode Mode
}

func newMemoryRegion(obj Mappable, mode Mode, size int) (*memoryRegion, error) {
	return nil, errUnsupported
}

func (region *memoryRegion) Close() error           { return nil }
func (region *memoryRegion) Flush(async bool) error { return errUnsupported }
