// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || linux

package shmbox

import (
	"fmt"
	"hash/fnv"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nxgtw/go-shmbox/shm"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// testSegmentName returns a name unique for the test and the process,
// short enough for darwin.
func testSegmentName(t *testing.T) string {
	h := fnv.New32a()
	h.Write([]byte(t.Name()))
	name := fmt.Sprintf("shmbox-%d-%08x", os.Getpid(), h.Sum32())
	shm.DestroyMemoryObject(name)
	t.Cleanup(func() {
		shm.DestroyMemoryObject(name)
	})
	return name
}

// segmentExists checks, if the OS object is still discoverable by name.
func segmentExists(t *testing.T, name string) bool {
	seg, err := New(name).Open()
	if err != nil {
		if !errors.Is(err, ErrSizeNotSpecified) {
			t.Fatalf("unexpected open error: %v", err)
		}
		return false
	}
	seg.Close()
	return true
}

func fastRetry(retries uint64) func() backoff.BackOff {
	return func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(0), retries)
	}
}

var disposeCalls atomic.Int32

type disposable struct {
	value int32
}

func (d *disposable) Dispose() {
	disposeCalls.Add(1)
}

type statsEvent struct {
	kind  string
	name  string
	state State
	flag  bool
	err   error
}

type recordingStats struct {
	mu     sync.Mutex
	events []statsEvent
}

func (s *recordingStats) add(e statsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingStats) SegmentOpened(name string, owner bool) {
	s.add(statsEvent{kind: "opened", name: name, flag: owner})
}

func (s *recordingStats) OpenFailed(name string, err error) {
	s.add(statsEvent{kind: "failed", name: name, err: err})
}

func (s *recordingStats) Released(name string, state State, err error) {
	s.add(statsEvent{kind: "released", name: name, state: state, err: err})
}

func (s *recordingStats) SegmentUnlinked(name string, err error) {
	s.add(statsEvent{kind: "unlinked", name: name, err: err})
}

func (s *recordingStats) BoxLeaked(name string) {
	s.add(statsEvent{kind: "leaked", name: name})
}

func (s *recordingStats) BoxOwned(name string, promoted bool) {
	s.add(statsEvent{kind: "owned", name: name, flag: promoted})
}

func (s *recordingStats) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []string
	for _, e := range s.events {
		result = append(result, e.kind)
	}
	return result
}

func (s *recordingStats) last() statsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return statsEvent{}
	}
	return s.events[len(s.events)-1]
}
