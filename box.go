// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

import (
	"log/slog"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/go-shmbox/internal/allocator"
	"github.com/nxgtw/go-shmbox/mmf"

	"github.com/pkg/errors"
)

// State is the ownership state of a Box.
type State int32

const (
	// Borrowed boxes unmap the segment on release, but keep the OS object.
	Borrowed State = iota
	// Owned boxes unlink the OS object and unmap the segment on release.
	Owned
	// Leaked boxes never release anything. The state is terminal.
	Leaked
	// Released is the state of a box, that was closed or passed to Own.
	Released
)

func (s State) String() string {
	switch s {
	case Borrowed:
		return "Borrowed"
	case Owned:
		return "Owned"
	case Leaked:
		return "Leaked"
	case Released:
		return "Released"
	default:
		return "unknown"
	}
}

func (s State) live() bool {
	return s == Owned || s == Borrowed
}

func initialState(owner bool) State {
	if owner {
		return Owned
	}
	return Borrowed
}

// Disposer is implemented by payloads, that have to do some cleanup before
// their box releases the segment. Dispose is called with the pointer to the
// payload in shared memory, once per release, by both owning and borrowing boxes.
type Disposer interface {
	Dispose()
}

// Box is a typed view of a segment's memory, which controls the segment's release.
//
// A box is live in Owned and Borrowed states. Only live boxes give access to the payload,
// using a box after it was closed, leaked, or passed to Own panics.
// Exactly one of Close, Leak, Own takes effect for a box, even if they are called concurrently.
//
// Box adds no synchronization to the payload. It's as safe to share between goroutines
// as T itself is, and it doesn't synchronize with other processes at all.
type Box[T any] struct {
	seg   *Segment
	ptr   *T
	state atomic.Int32
}

// Boxed interprets the segment's memory as a value of type T.
//
// This is an unsafe operation. The caller must guarantee, that:
//   - T contains no Go references: pointers, slices, strings, maps, channels,
//     interfaces or funcs. The garbage collector doesn't see shared memory.
//   - the memory is initialized before it is read. An owner has to write a valid T first,
//     a non-owner must only box segments, where the owning process did so.
//
// Breaking these rules is undefined behavior and is not detected.
// Boxed panics, if T is larger than the segment, or if the segment was already boxed or closed.
// See BoxedChecked for a variant returning errors and checking T for references.
//
// The box starts as Owned, if the segment is the owner of the OS object, and Borrowed otherwise.
// The segment belongs to the box after this call: don't close it, close the box.
func Boxed[T any](seg *Segment) *Box[T] {
	box, err := newBox[T](seg)
	if err != nil {
		panic(err)
	}
	return box
}

// BoxedChecked is like Boxed, but returns ErrSizeMismatch, ErrAlreadyBoxed,
// or ErrPayloadType for types with references, instead of panicking.
// The memory initialization rules of Boxed still apply.
func BoxedChecked[T any](seg *Segment) (*Box[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if err := allocator.CheckTypeReferences(typ); err != nil {
		return nil, errors.Wrapf(ErrPayloadType, "%v: %v", typ, err)
	}
	return newBox[T](seg)
}

func newBox[T any](seg *Segment) (*Box[T], error) {
	var zero T
	if need := unsafe.Sizeof(zero); need > uintptr(seg.Size()) {
		return nil, errors.Wrapf(ErrSizeMismatch, "%T needs %d bytes, segment %q has %d", zero, need, seg.name, seg.size)
	}
	ptr := seg.Pointer()
	if ptr == nil {
		return nil, errors.Errorf("segment %q is closed", seg.name)
	}
	if !seg.boxed.CompareAndSwap(false, true) {
		return nil, errors.Wrapf(ErrAlreadyBoxed, "%q", seg.name)
	}
	box := wrap(seg, (*T)(ptr), initialState(seg.owner))
	seg.log.Debug("segment boxed", slog.String("type", reflect.TypeOf((*T)(nil)).Elem().String()), slog.Any("state", box.State()))
	return box, nil
}

func wrap[T any](seg *Segment, ptr *T, state State) *Box[T] {
	box := &Box[T]{seg: seg, ptr: ptr}
	box.state.Store(int32(state))
	return box
}

// State returns the current state of the box.
func (b *Box[T]) State() State {
	return State(b.state.Load())
}

// Segment returns the segment the box is bound to.
func (b *Box[T]) Segment() *Segment {
	return b.seg
}

// Ptr returns the pointer to the payload in shared memory.
// The pointer must not be used after the box is released,
// and must not be written through, if the segment is read-only.
func (b *Box[T]) Ptr() *T {
	b.mustBeLive()
	return b.ptr
}

// Load returns a copy of the payload.
func (b *Box[T]) Load() T {
	b.mustBeLive()
	defer mmf.UseMemoryRegion(b.seg.region)
	return *b.ptr
}

// Store overwrites the payload. It panics for read-only segments.
func (b *Box[T]) Store(value T) {
	b.mustBeLive()
	if b.seg.ReadOnly() {
		panic(errors.Errorf("shmbox: store to a read-only segment %q", b.seg.name))
	}
	defer mmf.UseMemoryRegion(b.seg.region)
	*b.ptr = value
}

// Bytes returns the payload's memory.
func (b *Box[T]) Bytes() []byte {
	b.mustBeLive()
	size := int(unsafe.Sizeof(*b.ptr))
	return allocator.ByteSliceFromUnsafePointer(unsafe.Pointer(b.ptr), size, size)
}

// Close releases a live box, and does nothing otherwise.
// For an owning box it calls the payload's Dispose, unlinks the OS object and unmaps
// the segment, in that order. A borrowing box skips unlinking.
// The segment is unmapped even if Dispose panics.
func (b *Box[T]) Close() error {
	prev, ok := b.transit(Released)
	if !ok {
		return nil
	}
	return b.release(prev)
}

func (b *Box[T]) release(prev State) (err error) {
	defer func() {
		err = b.seg.release(prev == Owned)
		b.seg.report(prev, err)
		if err != nil {
			b.seg.log.Warn("release failed", slog.Any("state", prev), slog.Any("error", err))
			return
		}
		b.seg.log.Debug("box released", slog.Any("state", prev), slog.Bool("unlinked", prev == Owned))
	}()
	if d, ok := any(b.ptr).(Disposer); ok {
		d.Dispose()
	}
	return nil
}

// transit moves a live box into the next state.
// It returns the previous state, and false if the box wasn't live.
func (b *Box[T]) transit(next State) (State, bool) {
	for {
		cur := State(b.state.Load())
		if !cur.live() {
			return cur, false
		}
		if b.state.CompareAndSwap(int32(cur), int32(next)) {
			return cur, true
		}
	}
}

func (b *Box[T]) mustBeLive() {
	if state := b.State(); !state.live() {
		panic(errors.Errorf("shmbox: use of a %s box of segment %q", state, b.seg.name))
	}
}
