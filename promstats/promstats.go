// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package promstats exports shmbox lifecycle events as Prometheus metrics.
package promstats

import (
	"github.com/nxgtw/go-shmbox"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shmbox"

var _ shmbox.Stats = (*Collector)(nil)

// Collector implements shmbox.Stats with Prometheus metrics.
// Segment names are not used as labels, as they may be unbounded.
type Collector struct {
	opened    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	releases  *prometheus.CounterVec
	unlinks   *prometheus.CounterVec
	leaks     prometheus.Counter
	transfers *prometheus.CounterVec
	live      prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_opened_total",
			Help:      "Segments opened, by role (owner or borrower).",
		}, []string{"role"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_errors_total",
			Help:      "Failed segment opens, by error kind.",
		}, []string{"kind"}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_total",
			Help:      "Segment releases, by kind (owned releases unlink) and result.",
		}, []string{"state", "result"}),
		unlinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "late_unlinks_total",
			Help:      "Segments unlinked after they had been released without unlinking, by result.",
		}, []string{"result"}),
		leaks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaks_total",
			Help:      "Boxes leaked.",
		}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ownership_transfers_total",
			Help:      "Own calls, by whether the box was promoted from borrowed.",
		}, []string{"promoted"}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_segments",
			Help:      "Segments opened and neither released nor leaked yet.",
		}),
	}
	for _, collector := range []prometheus.Collector{c.opened, c.failures, c.releases, c.unlinks, c.leaks, c.transfers, c.live} {
		if err := reg.Register(collector); err != nil {
			return nil, errors.Wrap(err, "failed to register shmbox metrics")
		}
	}
	return c, nil
}

func (c *Collector) SegmentOpened(name string, owner bool) {
	role := "borrower"
	if owner {
		role = "owner"
	}
	c.opened.WithLabelValues(role).Inc()
	c.live.Inc()
}

func (c *Collector) OpenFailed(name string, err error) {
	c.failures.WithLabelValues(errorKind(err)).Inc()
}

func (c *Collector) Released(name string, state shmbox.State, err error) {
	c.releases.WithLabelValues(state.String(), resultLabel(err)).Inc()
	c.live.Dec()
}

func (c *Collector) SegmentUnlinked(name string, err error) {
	c.unlinks.WithLabelValues(resultLabel(err)).Inc()
}

func (c *Collector) BoxLeaked(name string) {
	c.leaks.Inc()
	c.live.Dec()
}

func (c *Collector) BoxOwned(name string, promoted bool) {
	label := "false"
	if promoted {
		label = "true"
	}
	c.transfers.WithLabelValues(label).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func errorKind(err error) string {
	var platformErr *shmbox.PlatformError
	switch {
	case errors.Is(err, shmbox.ErrNameInvalid):
		return "name_invalid"
	case errors.Is(err, shmbox.ErrSizeNotSpecified):
		return "size_not_specified"
	case errors.Is(err, shmbox.ErrSizeMismatch):
		return "size_mismatch"
	case errors.As(err, &platformErr):
		return "platform"
	default:
		return "other"
	}
}
