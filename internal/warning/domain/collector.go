package domain

import (
	"context"
	"sync"
)

// Collector gathers the warnings surfaced while serving one request.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(w Warning) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

// Warnings returns a copy in the order they were added.
func (c *Collector) Warnings() []Warning {
	if c == nil {
		return []Warning{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

type collectorKey struct{}

func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

// CollectorFromContext returns nil when ctx carries no collector.
func CollectorFromContext(ctx context.Context) *Collector {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}
