// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

import (
	"context"
	"log/slog"
	"math"
	"os"

	"github.com/nxgtw/go-shmbox/internal/common"
	"github.com/nxgtw/go-shmbox/mmf"
	"github.com/nxgtw/go-shmbox/shm"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// DefaultPerm is the permission set for created segments, if not specified.
const DefaultPerm os.FileMode = 0600

// Builder configures a segment request. No I/O is done before Open.
type Builder struct {
	name     string
	size     int64
	perm     os.FileMode
	log      *slog.Logger
	stats    Stats
	retry    func() backoff.BackOff
	readOnly bool
}

// New starts configuring a segment with the given name.
// On linux the name must not contain '/' (a leading one is ignored) and must be
// at most 255 symbols long; on darwin it must not exceed 30 symbols.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		perm:  DefaultPerm,
		stats: NoopStats{},
		retry: common.DefaultRetry,
	}
}

// WithSize sets the segment size in bytes. It is required only if the segment
// doesn't exist yet. When an existing segment is opened, the size must not exceed
// the actual one, and only 'size' bytes are mapped.
func (b *Builder) WithSize(size int64) *Builder {
	b.size = size
	return b
}

// WithPerm sets permission bits for a created segment.
func (b *Builder) WithPerm(perm os.FileMode) *Builder {
	b.perm = perm
	return b
}

// WithReadOnly maps the segment read-only, if it is opened rather than created.
// A created segment is always writable, as its owner has to initialize it.
// Writes through a read-only mapping fault, Box.Store and segment writers reject them.
func (b *Builder) WithReadOnly() *Builder {
	b.readOnly = true
	return b
}

// WithLogger sets the logger for the segment and its boxes. Nothing is logged by default.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.log = l
	return b
}

// WithStats sets the receiver of lifecycle events.
func (b *Builder) WithStats(stats Stats) *Builder {
	if stats == nil {
		stats = NoopStats{}
	}
	b.stats = stats
	return b
}

// WithRetry sets a factory of backoff policies used when the segment is concurrently
// created and removed by other processes, and when waiting for another process
// to finish the creation of the segment.
func (b *Builder) WithRetry(newPolicy func() backoff.BackOff) *Builder {
	if newPolicy == nil {
		newPolicy = common.DefaultRetry
	}
	b.retry = newPolicy
	return b
}

// Open is OpenContext with the background context.
func (b *Builder) Open() (*Segment, error) {
	return b.OpenContext(context.Background())
}

// OpenContext creates the segment if it doesn't exist, or opens an existing one.
// The created segment is owned by the caller, see Segment.IsOwner.
// Possible errors are ErrNameInvalid, ErrSizeNotSpecified, ErrSizeMismatch,
// the context's error, and *PlatformError for the OS failures.
// Losing a creation race to another process is not an error: the segment is opened then.
func (b *Builder) OpenContext(ctx context.Context) (*Segment, error) {
	log := segmentLogger(b.log, b.name)
	seg, err := b.open(ctx, log)
	if err != nil {
		err = translateError("open", b.name, err)
		b.stats.OpenFailed(b.name, err)
		log.Debug("open failed", slog.Any("error", err))
		return nil, err
	}
	b.stats.SegmentOpened(b.name, seg.owner)
	log.Debug("segment opened", slog.Int("size", seg.size), slog.Bool("owner", seg.owner))
	return seg, nil
}

func (b *Builder) open(ctx context.Context, log *slog.Logger) (_ *Segment, resultErr error) {
	if b.size < 0 {
		return nil, errors.Wrapf(ErrSizeNotSpecified, "invalid size %d", b.size)
	}
	if b.size > math.MaxInt {
		return nil, errors.Wrapf(ErrSizeMismatch, "size %d can't be mapped", b.size)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var obj *shm.MemoryObject
	var created bool
	var err error
	if b.size == 0 {
		obj, err = shm.NewMemoryObject(b.name, b.openFlag(), b.perm)
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(ErrSizeNotSpecified, "segment %q doesn't exist", b.name)
		}
	} else {
		obj, created, err = shm.NewMemoryObjectSize(b.name, os.O_CREATE|os.O_RDWR, b.perm, b.size, b.policy(ctx))
	}
	if err != nil {
		return nil, err
	}
	// the descriptor is not needed after the object is mapped.
	defer func() {
		obj.Close()
		if resultErr != nil && created {
			if err := obj.Destroy(); err != nil {
				log.Warn("failed to remove created object", slog.Any("error", err))
			}
		}
	}()
	size, err := b.mappingSize(ctx, obj, created)
	if err != nil {
		return nil, err
	}
	mode := mmf.ModeReadWrite
	if b.readOnly && !created {
		mode = mmf.ModeReadOnly
	}
	region, err := mmf.NewMemoryRegion(obj, mode, size)
	if err != nil {
		return nil, err
	}
	return &Segment{
		name:   b.name,
		size:   size,
		owner:  created,
		region: region,
		log:    log,
		stats:  b.stats,
	}, nil
}

// mappingSize returns the number of bytes to map.
// An opened object may still have zero size, if its creator hasn't resized it yet.
func (b *Builder) mappingSize(ctx context.Context, obj *shm.MemoryObject, created bool) (int, error) {
	if created {
		return int(b.size), nil
	}
	var actual int64
	errEmpty := errors.Wrapf(ErrSizeMismatch, "segment %q is empty", b.name)
	err := common.WaitFor(func() (bool, error) {
		fi, err := obj.Stat()
		if err != nil {
			return false, err
		}
		actual = fi.Size()
		return actual > 0, nil
	}, b.policy(ctx), errEmpty)
	if err != nil {
		return 0, err
	}
	if b.size > actual {
		return 0, errors.Wrapf(ErrSizeMismatch, "requested %d bytes, segment %q has %d", b.size, b.name, actual)
	}
	if b.size > 0 {
		return int(b.size), nil
	}
	if actual > math.MaxInt {
		return 0, errors.Wrapf(ErrSizeMismatch, "segment %q of %d bytes can't be mapped", b.name, actual)
	}
	return int(actual), nil
}

// openFlag is the access flag for opening an existing object.
func (b *Builder) openFlag() int {
	if b.readOnly {
		return os.O_RDONLY
	}
	return os.O_RDWR
}

func (b *Builder) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(b.retry(), ctx)
}
