package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricsPusher exports a batch run's metrics to a Prometheus Pushgateway.
// Import runs are short lived, so metrics are pushed once at the end rather
// than scraped.
type MetricsPusher struct {
	url      string
	job      string
	gatherer prometheus.Gatherer
	client   push.HTTPDoer
}

// NewMetricsPusher returns a pusher for gatherer. An empty url disables
// pushing and Push becomes a no-op.
func NewMetricsPusher(url, job string, gatherer prometheus.Gatherer) *MetricsPusher {
	if job == "" {
		job = "breeder_import"
	}
	return &MetricsPusher{url: strings.TrimSpace(url), job: job, gatherer: gatherer}
}

// WithClient overrides the HTTP client used to reach the gateway.
func (p *MetricsPusher) WithClient(c push.HTTPDoer) *MetricsPusher {
	p.client = c
	return p
}

// Enabled reports whether a gateway URL is configured.
func (p *MetricsPusher) Enabled() bool { return p != nil && p.url != "" }

// Push replaces the metrics held by the gateway for this job and instance.
func (p *MetricsPusher) Push(ctx context.Context, instance string) error {
	if !p.Enabled() {
		return nil
	}
	pusher := push.New(p.url, p.job).Gatherer(p.gatherer)
	if instance != "" {
		pusher = pusher.Grouping("instance", instance)
	}
	if p.client != nil {
		pusher = pusher.Client(p.client)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", p.url, err)
	}
	return nil
}
