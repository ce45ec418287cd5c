// Copyright 2016 Aleksandr Demakin. All rights reserved.

package promstats

import (
	"syscall"
	"testing"

	"github.com/nxgtw/go-shmbox"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorLifecycle(t *testing.T) {
	a := assert.New(t)
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	c.SegmentOpened("a", true)
	c.SegmentOpened("a", false)
	c.SegmentOpened("b", false)
	a.Equal(1.0, testutil.ToFloat64(c.opened.WithLabelValues("owner")))
	a.Equal(2.0, testutil.ToFloat64(c.opened.WithLabelValues("borrower")))
	a.Equal(3.0, testutil.ToFloat64(c.live))

	c.Released("a", shmbox.Borrowed, nil)
	c.Released("a", shmbox.Owned, errors.New("unlink failed"))
	c.BoxLeaked("b")
	a.Equal(1.0, testutil.ToFloat64(c.releases.WithLabelValues("Borrowed", "ok")))
	a.Equal(1.0, testutil.ToFloat64(c.releases.WithLabelValues("Owned", "error")))
	a.Equal(1.0, testutil.ToFloat64(c.leaks))
	a.Equal(0.0, testutil.ToFloat64(c.live))

	c.SegmentUnlinked("a", nil)
	a.Equal(1.0, testutil.ToFloat64(c.unlinks.WithLabelValues("ok")))
	a.Equal(0.0, testutil.ToFloat64(c.live))

	c.BoxOwned("b", true)
	c.BoxOwned("c", false)
	c.BoxOwned("d", false)
	a.Equal(1.0, testutil.ToFloat64(c.transfers.WithLabelValues("true")))
	a.Equal(2.0, testutil.ToFloat64(c.transfers.WithLabelValues("false")))
}

func TestCollectorOpenErrors(t *testing.T) {
	a := assert.New(t)
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	errs := []error{
		errors.Wrap(shmbox.ErrNameInvalid, "bad"),
		shmbox.ErrSizeNotSpecified,
		errors.Wrap(shmbox.ErrSizeMismatch, "too big"),
		&shmbox.PlatformError{Op: "open", Name: "x", Err: syscall.EACCES},
		errors.New("something else"),
	}
	for _, err := range errs {
		c.OpenFailed("x", err)
	}
	for _, kind := range []string{"name_invalid", "size_not_specified", "size_mismatch", "platform", "other"} {
		a.Equal(1.0, testutil.ToFloat64(c.failures.WithLabelValues(kind)), kind)
	}
}

func TestCollectorDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollectorGather(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.SegmentOpened("a", true)
	count, err := testutil.GatherAndCount(reg, "shmbox_segments_opened_total", "shmbox_live_segments")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
