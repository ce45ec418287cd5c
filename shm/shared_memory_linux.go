// Copyright 2015 Aleksandr Demakin. All rights reserved.

//go:build linux

package shm

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	maxNameLen       = 255 // NAME_MAX
	defaultShmPath   = "/dev/shm/"
	cShmfsSuperMagic = 0x01021994
	cRamfsMagic      = 0x858458f6
)

var (
	shmPathOnce sync.Once
	shmPath     string
)

type mntent struct {
	fsname string // device or server for filesystem.
	dir    string // directory mounted on.
	fstype string // type of filesystem: ufs, nfs, etc.
	opts   string // comma-separated options for fs.
	freq   int    // dump frequency (in days).
	passno int    // pass number for fsck.
}

func doDestroyMemoryObject(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// glibc/sysdeps/posix/shm_open.c
func shmOpen(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag|unix.O_NOFOLLOW, perm)
}

// glibc/sysdeps/posix/shm-directory.h
func shmName(name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	nameLen := len(name)
	if nameLen == 0 || nameLen > maxNameLen || strings.ContainsAny(name, "/\x00") || name == "." || name == ".." {
		return "", errors.Wrapf(ErrInvalidName, "%q", name)
	}
	var dir string
	var err error
	if dir, err = shmDirectory(); err != nil {
		return "", errors.Wrap(err, "error building shared memory name")
	}
	return dir + name, nil
}

func shmDirectory() (string, error) {
	shmPathOnce.Do(locateShmFs)
	if len(shmPath) == 0 {
		return shmPath, errors.New("error locating the shared memory path")
	}
	return shmPath, nil
}

// glibc/sysdeps/unix/sysv/linux/shm-directory.c
func locateShmFs() {
	if checkShmPath(defaultShmPath) {
		shmPath = defaultShmPath
	} else {
		shmPath = shmFsFromMounts()
	}
}

func checkShmPath(path string) bool {
	if len(path) == 0 {
		return false
	}
	var statfs unix.Statfs_t
	if err := unix.Statfs(path, &statfs); err != nil {
		return false
	}
	// unconvert says 'warning: redundant type conversion',
	// however, it is not, as statfs.Type has different types on different platforms.
	return isShmFs(int64(statfs.Type))
}

func isShmFs(fsType int64) bool {
	return fsType == cShmfsSuperMagic || fsType == cRamfsMagic
}

func shmFsFromMounts() string {
	var fsFile *os.File
	var err error
	if fsFile, err = os.Open("/proc/mounts"); err != nil {
		if fsFile, err = os.Open("/etc/fstab"); err != nil {
			return ""
		}
	}
	defer fsFile.Close()
	return shmFsFromReader(fsFile)
}

func shmFsFromReader(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		record := scanMountRecord(scanner.Text())
		if record == nil || (record.fstype != "tmpfs" && record.fstype != "shm") {
			continue
		}
		if checkShmPath(record.dir) {
			return strings.TrimSuffix(record.dir, "/") + "/"
		}
	}
	return ""
}

// scanMountRecord parses one fstab(5) line.
// It returns nil for comments, blank and malformed lines.
func scanMountRecord(record string) *mntent {
	fields := strings.Fields(record)
	if len(fields) < 4 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	result := &mntent{fsname: fields[0], dir: fields[1], fstype: fields[2], opts: fields[3]}
	// freq and passno are optional.
	var err error
	if len(fields) > 4 {
		if result.freq, err = strconv.Atoi(fields[4]); err != nil {
			return nil
		}
	}
	if len(fields) > 5 {
		if result.passno, err = strconv.Atoi(fields[5]); err != nil {
			return nil
		}
	}
	return result
}
