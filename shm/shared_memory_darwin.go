// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build darwin

package shm

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// PSHMNAMLEN - 1
const maxNameLen = 30

func doDestroyMemoryObject(path string) error {
	err := shm_unlink(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		}
	}
	return err
}

func shmName(name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if len(name) == 0 || len(name) > maxNameLen || strings.ContainsAny(name, "/\x00") {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	// workaround from http://www.opensource.apple.com/source/Libc/Libc-320/sys/shm_open.c
	newName := fmt.Sprintf("%s\t%d", name, unix.Geteuid())
	if len(newName) < maxNameLen {
		name = newName
	}
	return "/" + name, nil
}

func shmOpen(path string, flag int, perm os.FileMode) (*os.File, error) {
	flag |= unix.O_CLOEXEC
	fd, err := shm_open(path, flag, int(perm))
	if err != nil {
		return nil, err
	}
	return os.NewFile(fd, path), nil
}

// syscalls

func shm_open(name string, flags, mode int) (uintptr, error) {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return 0, err
	}
	fd, _, errno := unix.Syscall(unix.SYS_SHM_OPEN, uintptr(unsafe.Pointer(nameBytes)), uintptr(flags), uintptr(mode))
	if errno != syscall.Errno(0) {
		return 0, &os.PathError{Path: name, Op: "shm_open", Err: errno}
	}
	return fd, nil
}

func shm_unlink(name string) error {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_SHM_UNLINK, uintptr(unsafe.Pointer(nameBytes)), 0, 0)
	if errno != syscall.Errno(0) {
		return &os.PathError{Path: name, Op: "shm_unlink", Err: errno}
	}
	return nil
}
