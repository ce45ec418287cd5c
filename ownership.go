// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

import (
	"log/slog"

	"github.com/pkg/errors"
)

// Leak gives up the automatic cleanup of a live box: its payload is not disposed,
// the segment stays mapped until the process exits, and the OS object is not unlinked.
// The box becomes Leaked and can't be used anymore.
// Use it, when the segment has to outlive the process, for example when a producer
// writes data for a consumer, which hasn't attached yet.
// Leak does nothing for a box, that isn't live.
func Leak[T any](b *Box[T]) {
	prev, ok := b.transit(Leaked)
	if !ok {
		return
	}
	b.seg.forget()
	b.seg.stats.BoxLeaked(b.seg.name)
	b.seg.log.Debug("box leaked", slog.Any("state", prev))
}

// Own makes the caller responsible for the final cleanup of the segment,
// regardless of who has created it.
// It returns a new Owned box for the same segment; the passed box is Released
// and must not be used.
// Typically it is used by a consumer, that attaches to a segment leaked by a producer.
// Own panics, if the box isn't live.
func Own[T any](b *Box[T]) *Box[T] {
	prev, ok := b.transit(Released)
	if !ok {
		panic(errors.Errorf("shmbox: Own of a %s box of segment %q", prev, b.seg.name))
	}
	b.seg.stats.BoxOwned(b.seg.name, prev == Borrowed)
	b.seg.log.Debug("box owned", slog.Any("previous", prev))
	return wrap(b.seg, b.ptr, Owned)
}
