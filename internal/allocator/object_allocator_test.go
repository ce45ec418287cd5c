// Copyright 2015 Aleksandr Demakin. All rights reserved.

package allocator

import (
	"reflect"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestCheckTypeReferencesKinds(t *testing.T) {
	type validStruct struct {
		a, b int
		u    uintptr
		s    struct {
			arr [3]int
		}
	}
	type invalidStruct1 struct {
		a, b *int
	}
	type invalidStruct2 struct {
		a, b []int
	}
	type invalidStruct3 struct {
		s string
	}
	valid := []interface{}{0, complex128(0), [3]int{}, validStruct{}, sync.Mutex{}}
	for _, value := range valid {
		assert.NoError(t, CheckTypeReferences(reflect.TypeOf(value)), "%T", value)
	}
	invalid := []interface{}{invalidStruct1{}, invalidStruct2{}, invalidStruct3{}, [3]string{}, map[int]int{}, [][]int{}, make(chan int)}
	for _, value := range invalid {
		assert.Error(t, CheckTypeReferences(reflect.TypeOf(value)), "%T", value)
	}
}

func TestCheckTypeReferences(t *testing.T) {
	type counter struct {
		n    int32
		hits [4]uint64
	}
	type named struct {
		name string
	}
	a := assert.New(t)
	a.NoError(CheckTypeReferences(reflect.TypeOf(int32(0))))
	a.NoError(CheckTypeReferences(reflect.TypeOf(counter{})))
	a.NoError(CheckTypeReferences(reflect.TypeOf([8]byte{})))
	a.Error(CheckTypeReferences(nil))
	a.Error(CheckTypeReferences(reflect.TypeOf(&counter{})))
	a.Error(CheckTypeReferences(reflect.TypeOf([]byte{})))
	err := CheckTypeReferences(reflect.TypeOf(named{}))
	if a.Error(err) {
		a.Contains(err.Error(), "field name")
	}
}

func TestByteSliceFromUnsafePointer(t *testing.T) {
	a := assert.New(t)
	var i = uint32(0x01027FFF)
	data := ByteSliceFromUnsafePointer(unsafe.Pointer(&i), 2, 4)
	a.Len(data, 2)
	a.Equal(4, cap(data))
	data = data[:4]
	for j := range data {
		data[j] = 0
	}
	a.Equal(uint32(0), i)
	a.Nil(ByteSliceFromUnsafePointer(nil, 0, 0))
}
