// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package shmbox provides typed, ownership-tracked handles over named shared memory segments.
//
// A segment is opened with a Builder. The first process to open a name creates the
// OS object and becomes its owner, the others just map it:
//
//	seg, err := shmbox.New("counter").WithSize(4).Open()
//	if err != nil {
//		return err
//	}
//	counter := shmbox.Boxed[int32](seg)
//	defer counter.Close()
//	*counter.Ptr() = 5
//
// Closing an owning box runs the payload's Dispose (if any), unlinks the object and
// unmaps the memory. Closing a borrowing box only disposes and unmaps. Leak keeps
// everything in place, so the segment outlives the process, and Own makes any box
// responsible for the final cleanup.
//
// The package doesn't synchronize access to the shared bytes between processes.
// Use the payload itself (atomics) or an external lock for that.
//
// Supported platforms are linux and darwin.
package shmbox
