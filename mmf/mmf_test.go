// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build darwin || linux

package mmf

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testFileSize = 128 * 1024

func makeTestFile(t *testing.T) *os.File {
	data := make([]byte, testFileSize)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "test.bin")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	file, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { file.Close() })
	return file
}

func TestMmfOpen(t *testing.T) {
	a := assert.New(t)
	file := makeTestFile(t)
	mr, err := NewMemoryRegion(file, ModeReadOnly, testFileSize)
	if !a.NoError(err) {
		return
	}
	a.NoError(mr.Close())
	mr, err = NewMemoryRegion(file, ModeReadOnly, 0)
	a.NoError(err)
	a.Equal(testFileSize, mr.Size())
	a.Equal(ModeReadOnly, mr.Mode())
	a.NoError(mr.Close())
	_, err = NewMemoryRegion(file, ModeReadOnly, testFileSize+1)
	a.Error(err)
	_, err = NewMemoryRegion(file, Mode(0), 1024)
	a.Error(err)
	_, err = NewMemoryRegion(file, ModeReadOnly, -1)
	a.Error(err)
}

func TestMmfOpenEmpty(t *testing.T) {
	file, err := os.Create(filepath.Join(t.TempDir(), "empty.bin"))
	if !assert.NoError(t, err) {
		return
	}
	defer file.Close()
	_, err = NewMemoryRegion(file, ModeReadWrite, 0)
	assert.Error(t, err)
}

func TestMmfCloseTwice(t *testing.T) {
	a := assert.New(t)
	file := makeTestFile(t)
	region, err := NewMemoryRegion(file, ModeReadWrite, 4096)
	if !a.NoError(err) {
		return
	}
	a.NotNil(region.Pointer())
	a.NoError(region.Close())
	a.NoError(region.Close())
	a.Nil(region.Data())
	a.Nil(region.Pointer())
	a.Equal(0, region.Size())
	a.Error(region.Flush(false))
	_, err = NewReader(region).ReadAt(make([]byte, 1), 0)
	a.Equal(ErrClosed, err)
	_, err = NewWriter(region).WriteAt(make([]byte, 1), 0)
	a.Equal(ErrClosed, err)
}

func TestMmfSharedWrite(t *testing.T) {
	a := assert.New(t)
	file := makeTestFile(t)
	rw, err := NewMemoryRegion(file, ModeReadWrite, 4096)
	if !a.NoError(err) {
		return
	}
	defer rw.Close()
	ro, err := NewMemoryRegion(file, ModeReadOnly, 4096)
	if !a.NoError(err) {
		return
	}
	defer ro.Close()
	rw.Data()[0] = 0xFF
	a.NoError(rw.Flush(false))
	a.NoError(ro.Flush(true))
	a.Equal(byte(0xFF), ro.Data()[0])
	a.Equal(byte(1), ro.Data()[1])
}

func TestMmfReadOnlyWriter(t *testing.T) {
	a := assert.New(t)
	file := makeTestFile(t)
	ro, err := NewMemoryRegion(file, ModeReadOnly, 4096)
	if !a.NoError(err) {
		return
	}
	defer ro.Close()
	n, err := NewWriter(ro).Write([]byte{1, 2, 3})
	a.Equal(0, n)
	a.Equal(ErrReadOnly, err)
	a.Equal(byte(0), ro.Data()[0])
	data := make([]byte, 4)
	n, err = NewReader(ro).ReadAt(data, 16)
	a.NoError(err)
	a.Equal(4, n)
	a.Equal([]byte{16, 17, 18, 19}, data)
}

func TestMmfFileCopy(t *testing.T) {
	a := assert.New(t)
	inFile := makeTestFile(t)
	outFile, err := os.Create(filepath.Join(t.TempDir(), "tmp.bin"))
	if !a.NoError(err) {
		return
	}
	defer outFile.Close()
	if !a.NoError(outFile.Truncate(testFileSize)) {
		return
	}
	inRegion, err := NewMemoryRegion(inFile, ModeReadOnly, 0)
	if !a.NoError(err) {
		return
	}
	defer func() {
		a.NoError(inRegion.Close())
	}()
	outRegion, err := NewMemoryRegion(outFile, ModeReadWrite, 0)
	if !a.NoError(err) {
		return
	}
	defer func() {
		a.NoError(outRegion.Close())
	}()
	rd := NewReader(inRegion)
	wr := NewWriter(outRegion)
	written, err := io.Copy(wr, rd)
	a.Equal(int64(testFileSize), written)
	a.NoError(err)
	if !a.NoError(outRegion.Flush(false)) {
		return
	}
	expected, err := io.ReadAll(inFile)
	if !a.NoError(err) {
		return
	}
	actual, err := io.ReadAll(outFile)
	if !a.NoError(err) {
		return
	}
	a.Equal(expected, actual)
}

func TestMmfReaderWriterBounds(t *testing.T) {
	a := assert.New(t)
	file := makeTestFile(t)
	region, err := NewMemoryRegion(file, ModeReadWrite, 4096)
	if !a.NoError(err) {
		return
	}
	defer region.Close()
	wr := NewWriter(region)
	n, err := wr.WriteAt([]byte{1, 2, 3, 4}, 4094)
	a.Equal(2, n)
	a.Equal(io.EOF, err)
	n, err = wr.WriteAt([]byte{1}, 5000)
	a.Equal(0, n)
	a.Equal(io.EOF, err)
	_, err = wr.WriteAt([]byte{1}, -1)
	a.Error(err)
	rd := NewReader(region)
	data := make([]byte, 4)
	n, err = rd.ReadAt(data, 4094)
	a.Equal(2, n)
	a.Equal(io.EOF, err)
	a.Equal([]byte{1, 2}, data[:2])
	n, err = rd.ReadAt(data, 4096)
	a.Equal(0, n)
	a.Equal(io.EOF, err)
}
