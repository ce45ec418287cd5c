// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

import (
	"log/slog"
	"sync/atomic"
	"unsafe"

	"github.com/nxgtw/go-shmbox/mmf"
	"github.com/nxgtw/go-shmbox/shm"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Segment is a named shared memory object mapped into the process' address space.
// It is created by Builder.Open.
// A segment is either used directly through Data, readers and writers, or
// handed to a Box with Boxed. In the latter case the box is responsible for the release.
type Segment struct {
	name     string
	size     int
	owner    bool
	region   *mmf.MemoryRegion
	boxed    atomic.Bool
	reported atomic.Int32
	log      *slog.Logger
	stats    Stats
}

// Name returns the name the segment was opened with.
func (s *Segment) Name() string {
	return s.name
}

// Size returns the size of the mapping in bytes.
func (s *Segment) Size() int {
	return s.size
}

// ReadOnly returns true, if the segment was mapped read-only, see Builder.WithReadOnly.
func (s *Segment) ReadOnly() bool {
	return !s.region.Mode().Writable()
}

// IsOwner returns true, if the OS object was created by this segment's Open.
func (s *Segment) IsOwner() bool {
	return s.owner
}

// Pointer returns the base address of the mapping, or nil if it was unmapped.
func (s *Segment) Pointer() unsafe.Pointer {
	return s.region.Pointer()
}

// Data returns mapped bytes.
// The slice is valid only while the segment (or its box) is alive and not released.
func (s *Segment) Data() []byte {
	return s.region.Data()
}

// Flush syncs the mapped memory with the OS object.
func (s *Segment) Flush(async bool) error {
	return translateError("flush", s.name, s.region.Flush(async))
}

// NewReader returns a reader over the whole segment.
func (s *Segment) NewReader() *mmf.Reader {
	return mmf.NewReader(s.region)
}

// NewWriter returns a writer over the whole segment.
// Its writes fail with mmf.ErrReadOnly, if the segment is read-only.
func (s *Segment) NewWriter() *mmf.Writer {
	return mmf.NewWriter(s.region)
}

// Close unmaps the segment. The OS object is kept, even if the segment is its owner.
// It fails for boxed segments, close the box instead.
func (s *Segment) Close() error {
	if s.boxed.Load() {
		return errors.Wrap(ErrAlreadyBoxed, "close the box instead")
	}
	err := s.release(false)
	s.report(Borrowed, err)
	return err
}

// Destroy unlinks the OS object and unmaps the segment.
// It fails for boxed segments, close the box instead.
func (s *Segment) Destroy() error {
	if s.boxed.Load() {
		return errors.Wrap(ErrAlreadyBoxed, "close the box instead")
	}
	err := s.release(true)
	s.report(Owned, err)
	return err
}

// release unlinks the object if requested, and then unmaps it.
func (s *Segment) release(unlink bool) error {
	var result error
	if unlink {
		if err := shm.DestroyMemoryObject(s.name); err != nil {
			result = multierr.Append(result, translateError("unlink", s.name, err))
		}
	}
	if err := s.region.Close(); err != nil {
		result = multierr.Append(result, translateError("unmap", s.name, err))
	}
	return result
}

// progress of release reporting.
const (
	notReported int32 = iota
	reportedKept
	reportedUnlinked
)

// report sends the first release of the segment to stats.
// An unlink after a release, which kept the object, is reported with SegmentUnlinked.
func (s *Segment) report(state State, err error) {
	if state != Owned {
		if s.reported.CompareAndSwap(notReported, reportedKept) {
			s.stats.Released(s.name, state, err)
		}
		return
	}
	if s.reported.CompareAndSwap(notReported, reportedUnlinked) {
		s.stats.Released(s.name, state, err)
	} else if s.reported.CompareAndSwap(reportedKept, reportedUnlinked) {
		s.stats.SegmentUnlinked(s.name, err)
	}
}

// forget leaves the mapping in place until the process exits.
func (s *Segment) forget() {
	s.region.Forget()
}
