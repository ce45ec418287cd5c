// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmbox

// Stats receives segment lifecycle events.
// Implement it to export them into a monitoring system, see package promstats.
// Implementations must be safe for concurrent use.
type Stats interface {
	// SegmentOpened is called after a successful Open.
	SegmentOpened(name string, owner bool)
	// OpenFailed is called when Open returns an error.
	OpenFailed(name string, err error)
	// Released is called after a box or a segment was released.
	// state is Owned, if the OS object was unlinked, and Borrowed otherwise.
	Released(name string, state State, err error)
	// SegmentUnlinked is called, when a segment, which was already released
	// without unlinking, is destroyed.
	SegmentUnlinked(name string, err error)
	// BoxLeaked is called after Leak.
	BoxLeaked(name string)
	// BoxOwned is called after Own. promoted is false, if the box already was an owner.
	BoxOwned(name string, promoted bool)
}

// NoopStats is a no-op implementation of Stats.
type NoopStats struct{}

func (NoopStats) SegmentOpened(string, bool)    {}
func (NoopStats) OpenFailed(string, error)      {}
func (NoopStats) Released(string, State, error) {}
func (NoopStats) SegmentUnlinked(string, error) {}
func (NoopStats) BoxLeaked(string)              {}
func (NoopStats) BoxOwned(string, bool)         {}
