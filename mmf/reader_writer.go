// Copyright 2016 Aleksandr Demakin. All rights reserved.

package mmf

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by readers and writers of an unmapped region.
	ErrClosed = errors.New("memory region is closed")
	// ErrReadOnly is returned by writers of a region, which was mapped with ModeReadOnly.
	ErrReadOnly = errors.New("memory region is read-only")
)

// Reader reads a region's memory. It holds a reference to the region, so the latter can't be gc'ed
// while the reader is in use.
type Reader struct {
	region *MemoryRegion
	pos    int64
}

// NewReader returns a reader, which starts at the beginning of the region.
func NewReader(region *MemoryRegion) *Reader {
	return &Reader{region: region}
}

// ReadAt is to implement io.ReaderAt.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	defer UseMemoryRegion(r.region)
	data, err := regionTail(r.region, off)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Read is to implement io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	return n, err
}

// Writer writes into a region's memory. It holds a reference to the region, so the latter can't be gc'ed
// while the writer is in use.
type Writer struct {
	region *MemoryRegion
	pos    int64
}

// NewWriter returns a writer, which starts at the beginning of the region.
func NewWriter(region *MemoryRegion) *Writer {
	return &Writer{region: region}
}

// WriteAt is to implement io.WriterAt.
// Bytes, that don't fit into the region, are not written, and io.EOF is returned.
func (w *Writer) WriteAt(p []byte, off int64) (int, error) {
	defer UseMemoryRegion(w.region)
	if !w.region.Mode().Writable() && w.region.Data() != nil {
		return 0, ErrReadOnly
	}
	data, err := regionTail(w.region, off)
	if err != nil {
		return 0, err
	}
	n := copy(data, p)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write is to implement io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.WriteAt(p, w.pos)
	w.pos += int64(n)
	return n, err
}

// regionTail returns the region's memory starting at off.
func regionTail(region *MemoryRegion, off int64) ([]byte, error) {
	data := region.Data()
	if data == nil {
		return nil, ErrClosed
	}
	if off < 0 {
		return nil, errors.Errorf("negative offset %d", off)
	}
	if off >= int64(len(data)) {
		return nil, nil
	}
	return data[off:], nil
}
