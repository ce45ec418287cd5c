// Copyright 2015 Aleksandr Demakin. All rights reserved.

package allocator

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

// ByteSliceFromUnsafePointer returns a slice of bytes with given length and capacity.
// Memory pointed by the unsafe.Pointer is used for the slice.
func ByteSliceFromUnsafePointer(memory unsafe.Pointer, length, capacity int) []byte {
	if memory == nil {
		return nil
	}
	return unsafe.Slice((*byte)(memory), capacity)[:length]
}

// CheckTypeReferences checks if values of type t can be placed into memory
// invisible to the garbage collector, i.e. t contains no references at all,
// not even at the top level.
func CheckTypeReferences(t reflect.Type) error {
	if t == nil {
		return errors.New("nil type")
	}
	return checkType(t, 1)
}

// checkType walks t. Slices and pointers are allowed at depth 0 only.
func checkType(t reflect.Type, depth int) error {
	kind := t.Kind()
	if kind == reflect.Array {
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Slice {
		if depth != 0 {
			return errors.New("unexpected slice type")
		}
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Ptr {
		if depth != 0 {
			return errors.New("unexpected pointer type")
		}
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if err := checkType(field.Type, depth+1); err != nil {
				return errors.Wrapf(err, "field %s", field.Name)
			}
		}
		return nil
	}
	return checkNumericType(kind)
}

func checkNumericType(kind reflect.Kind) error {
	if kind >= reflect.Bool && kind <= reflect.Complex128 {
		return nil
	}
	if kind == reflect.UnsafePointer {
		return nil
	}
	return errors.Errorf("unsupported type %q", kind.String())
}
