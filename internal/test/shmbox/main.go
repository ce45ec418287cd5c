// Copyright 2015 Aleksandr Demakin. All rights reserved.

package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/nxgtw/go-shmbox"
	testutil "github.com/nxgtw/go-shmbox/internal/test"
	"github.com/nxgtw/go-shmbox/shm"
)

var (
	objName = flag.String("object", "", "shared memory segment name")
	objSize = flag.Int64("size", 0, "segment size for the creation path")
	leak    = flag.Bool("leak", false, "leak the segment instead of releasing it")
	own     = flag.Bool("own", false, "take the ownership of the segment before releasing it")
	ro      = flag.Bool("ro", false, "map an existing segment read-only")
)

const usage = `  test program for shmbox segments.
available commands:
  create
  destroy
  read offset len
  test offset {expected values byte array}
  write offset {values byte array}
  store {int32 value}
  load
byte array should be passed as a continuous string of 2-symbol hex byte values like '01020A'
each command prints 'owner' or 'borrower' first.
`

func builder() *shmbox.Builder {
	b := shmbox.New(*objName).WithSize(*objSize)
	if *ro {
		b.WithReadOnly()
	}
	return b
}

// open opens the segment and boxes its first byte, so the lifetime
// of the segment is controlled by -leak and -own flags.
func open() (*shmbox.Segment, func() error, error) {
	seg, err := builder().Open()
	if err != nil {
		return nil, nil, err
	}
	if seg.IsOwner() {
		fmt.Println("owner")
	} else {
		fmt.Println("borrower")
	}
	box := shmbox.Boxed[byte](seg)
	return seg, func() error { return finish(box) }, nil
}

func finish[T any](box *shmbox.Box[T]) error {
	if *leak {
		shmbox.Leak(box)
		return nil
	}
	if *own {
		box = shmbox.Own(box)
	}
	return box.Close()
}

func create() error {
	if flag.NArg() != 1 {
		return fmt.Errorf("create: must not provide any arguments")
	}
	_, done, err := open()
	if err != nil {
		return err
	}
	return done()
}

func destroy() error {
	if flag.NArg() != 1 {
		return fmt.Errorf("destroy: must not provide any arguments")
	}
	return shm.DestroyMemoryObject(*objName)
}

func offsetAndData(cmd string) (int64, []byte, error) {
	if flag.NArg() != 3 {
		return 0, nil, fmt.Errorf("%s: must provide exactly two arguments", cmd)
	}
	offset, err := strconv.ParseInt(flag.Arg(1), 10, 64)
	if err != nil {
		return 0, nil, err
	}
	data, err := testutil.StringToBytes(flag.Arg(2))
	if err != nil {
		return 0, nil, err
	}
	return offset, data, nil
}

func read() error {
	if flag.NArg() != 3 {
		return fmt.Errorf("read: must provide exactly two arguments")
	}
	offset, err := strconv.ParseInt(flag.Arg(1), 10, 64)
	if err != nil {
		return err
	}
	length, err := strconv.Atoi(flag.Arg(2))
	if err != nil {
		return err
	}
	seg, done, err := open()
	if err != nil {
		return err
	}
	data := make([]byte, length)
	n, err := seg.NewReader().ReadAt(data, offset)
	if err != nil {
		done()
		return err
	}
	fmt.Println(testutil.BytesToString(data[:n]))
	return done()
}

func test() error {
	offset, expected, err := offsetAndData("test")
	if err != nil {
		return err
	}
	seg, done, err := open()
	if err != nil {
		return err
	}
	actual := make([]byte, len(expected))
	if _, err = seg.NewReader().ReadAt(actual, offset); err != nil {
		done()
		return err
	}
	if !bytes.Equal(expected, actual) {
		done()
		return fmt.Errorf("invalid data. expected '%s', got '%s'", testutil.BytesToString(expected), testutil.BytesToString(actual))
	}
	return done()
}

func write() error {
	offset, data, err := offsetAndData("write")
	if err != nil {
		return err
	}
	seg, done, err := open()
	if err != nil {
		return err
	}
	if _, err = seg.NewWriter().WriteAt(data, offset); err != nil {
		done()
		return err
	}
	if err = seg.Flush(false); err != nil {
		done()
		return err
	}
	return done()
}

func store() error {
	if flag.NArg() != 2 {
		return fmt.Errorf("store: must provide exactly one argument")
	}
	value, err := strconv.ParseInt(flag.Arg(1), 10, 32)
	if err != nil {
		return err
	}
	seg, err := shmbox.New(*objName).WithSize(*objSize).Open()
	if err != nil {
		return err
	}
	counter, err := shmbox.BoxedChecked[int32](seg)
	if err != nil {
		seg.Close()
		return err
	}
	counter.Store(int32(value))
	return finish(counter)
}

func load() error {
	if flag.NArg() != 1 {
		return fmt.Errorf("load: must not provide any arguments")
	}
	seg, err := builder().Open()
	if err != nil {
		return err
	}
	counter, err := shmbox.BoxedChecked[int32](seg)
	if err != nil {
		seg.Close()
		return err
	}
	fmt.Println(counter.Load())
	return finish(counter)
}

func runCommand() error {
	command := flag.Arg(0)
	switch command {
	case "create":
		return create()
	case "destroy":
		return destroy()
	case "read":
		return read()
	case "test":
		return test()
	case "write":
		return write()
	case "store":
		return store()
	case "load":
		return load()
	default:
		return fmt.Errorf("unknown command")
	}
}

func main() {
	flag.Parse()
	if len(*objName) == 0 || flag.NArg() == 0 {
		fmt.Print(usage)
		flag.Usage()
		os.Exit(1)
	}
	if err := runCommand(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
