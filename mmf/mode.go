// Copyright 2015 Aleksandr Demakin. All rights reserved.

package mmf

// Mode is the access mode of a memory region.
// All regions are shared: changes made through a writable region are visible
// to every other mapping of the same object.
type Mode int

const (
	// ModeReadOnly maps the object for reading. Writes through the mapping fault.
	ModeReadOnly Mode = iota + 1
	// ModeReadWrite maps the object for reading and writing.
	ModeReadWrite
)

// Writable returns true, if the memory of a region with this mode can be modified.
func (m Mode) Writable() bool {
	return m == ModeReadWrite
}

func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeReadWrite:
		return "read-write"
	default:
		return "invalid"
	}
}
