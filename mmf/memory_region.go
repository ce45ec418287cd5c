// Copyright 2015 Aleksandr Demakin. All rights reserved.

package mmf

import (
	"math"
	"os"
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
)

// MemoryRegion is a mmapped area of a memory object.
// Warning. The internal object has a finalizer set,
// so the region will be unmapped during the gc.
// Thus, you should be carefull getting internal data.
// For example, the following code may crash:
//
//	func f() {
//		region := NewMemoryRegion(...)
//		return g(region.Data())
//	}
//
// region may be gc'ed while its data is used by g().
// To avoid this, you can use UseMemoryRegion() or region readers/writers.
type MemoryRegion struct {
	*memoryRegion
}

// Mappable is an object, whose descriptor can be mmapped.
// Stat is used to check the mapping against the object's size.
type Mappable interface {
	Fd() uintptr
	Stat() (os.FileInfo, error)
}

// NewMemoryRegion maps the first size bytes of the object.
// If size is 0, the whole object is mapped.
func NewMemoryRegion(object Mappable, mode Mode, size int) (*MemoryRegion, error) {
	impl, err := newMemoryRegion(object, mode, size)
	if err != nil {
		return nil, err
	}
	result := &MemoryRegion{impl}
	runtime.SetFinalizer(impl, func(region *memoryRegion) {
		region.Close()
	})
	return result, nil
}

// Close unmaps the regions so that it cannot be longer used.
// Closing a closed region is a no-op.
func (region *MemoryRegion) Close() error {
	return region.memoryRegion.Close()
}

// Data returns region's mapped data, or nil, if the region was closed.
func (region *MemoryRegion) Data() []byte {
	return region.data
}

// Pointer returns the address of the first mapped byte, or nil if the region was closed.
func (region *MemoryRegion) Pointer() unsafe.Pointer {
	if len(region.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&region.data[0])
}

// Flush syncs mapped content with the object.
func (region *MemoryRegion) Flush(async bool) error {
	return region.memoryRegion.Flush(async)
}

// Size returns mapping size. It is 0 for closed regions.
func (region *MemoryRegion) Size() int {
	return len(region.data)
}

// Mode returns the mode the region was mapped with.
func (region *MemoryRegion) Mode() Mode {
	return region.mode
}

// Forget detaches the mapping from the region's lifetime: the finalizer is removed,
// so the memory stays mapped until the process exits, even if the region is gc'ed.
// The region must not be used after this call.
func (region *MemoryRegion) Forget() {
	runtime.SetFinalizer(region.memoryRegion, nil)
}

// UseMemoryRegion ensures, that the object is still alive at the moment of the call.
// The usecase is when you use memory region's Data() and don't use the
// region itself anymore. In this case the region can be gc'ed, the memory mapping
// destroyed and you can get segfault.
// It can be used like the following:
//
//	region := NewMemoryRegion(...)
//	defer UseMemoryRegion(region)
//	data := region.Data()
//	{ work with data }
//
// However, it is better to use region readers/writers.
func UseMemoryRegion(region *MemoryRegion) {
	runtime.KeepAlive(region.memoryRegion)
}

// mappingSize checks the requested size against the object's one.
// Mapping past the end of an object succeeds on unix, but touching those pages raises SIGBUS.
func mappingSize(obj Mappable, size int) (int, error) {
	if size < 0 {
		return 0, errors.Errorf("invalid mapping size %d", size)
	}
	fi, err := obj.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get object size")
	}
	objSize := fi.Size()
	switch {
	case size == 0 && objSize == 0:
		return 0, errors.New("can't map an empty object")
	case size == 0 && objSize > math.MaxInt:
		return 0, errors.Errorf("object of %d bytes is too large to be mapped", objSize)
	case size == 0:
		return int(objSize), nil
	case int64(size) > objSize:
		return 0, errors.Errorf("can't map %d bytes of an object of %d bytes", size, objSize)
	}
	return size, nil
}
