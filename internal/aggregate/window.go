// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package aggregate

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/tomtom215/sentinel/internal/event"
)

// windowShardCount stripes the per-entity buckets so the foreground
// consumption path and the background aggregation path never contend across
// unrelated tenants. Power of two for mask-based sharding.
const windowShardCount = 64

// WindowSpec names one rolling window and bounds its buffer.
type WindowSpec struct {
	// Name appears in silver partition keys, e.g. "1min".
	Name string

	// Duration is the nominal time span, recorded as window_start/window_end
	// metadata on each aggregation.
	Duration time.Duration

	// Capacity is the fixed ring size. When full, the oldest sample is
	// dropped; the transport's consumer-group flow control is the only
	// other backpressure mechanism.
	Capacity int
}

// DefaultWindowSpecs mirrors the 1/5/15 minute windows sized for roughly one
// sample per second per entity.
func DefaultWindowSpecs() []WindowSpec {
	return []WindowSpec{
		{Name: "1min", Duration: time.Minute, Capacity: 60},
		{Name: "5min", Duration: 5 * time.Minute, Capacity: 300},
		{Name: "15min", Duration: 15 * time.Minute, Capacity: 900},
	}
}

// ring is a fixed-capacity sample buffer that drops the oldest entry when full.
type ring struct {
	samples []event.MetricSample
	start   int
	size    int
}

func newRing(capacity int) *ring {
	return &ring{samples: make([]event.MetricSample, capacity)}
}

func (r *ring) add(s event.MetricSample) {
	if r.size == len(r.samples) {
		r.samples[r.start] = s
		r.start = (r.start + 1) % len(r.samples)
		return
	}
	r.samples[(r.start+r.size)%len(r.samples)] = s
	r.size++
}

// snapshot copies the buffered samples oldest-first.
func (r *ring) snapshot() []event.MetricSample {
	out := make([]event.MetricSample, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.samples[(r.start+i)%len(r.samples)]
	}
	return out
}

// windowEntry holds all window rings for one (tenant, signal type) pair,
// guarded by a single mutex.
type windowEntry struct {
	mu    sync.Mutex
	rings map[string]*ring // window name -> ring
}

// WindowSet buffers metric samples per (tenant, signal type) for each
// configured window. Add is called from the foreground consumption path;
// Snapshot from the background aggregation task. Lock striping keeps the two
// from blocking each other across unrelated entities.
type WindowSet struct {
	specs  []WindowSpec
	shards [windowShardCount]*windowShard
}

type windowShard struct {
	mu      sync.RWMutex
	entries map[string]*windowEntry
}

// GroupKey identifies one (tenant, signal type) sample group.
type GroupKey struct {
	TenantID   string
	SignalType string
}

// NewWindowSet creates window buffers for the given specs.
// Nil or empty specs fall back to DefaultWindowSpecs.
func NewWindowSet(specs []WindowSpec) *WindowSet {
	if len(specs) == 0 {
		specs = DefaultWindowSpecs()
	}
	w := &WindowSet{specs: specs}
	for i := range w.shards {
		w.shards[i] = &windowShard{entries: make(map[string]*windowEntry)}
	}
	return w
}

// Specs returns the configured window specs.
func (w *WindowSet) Specs() []WindowSpec {
	return w.specs
}

func (w *WindowSet) shardFor(k string) *windowShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k))
	return w.shards[h.Sum32()&(windowShardCount-1)]
}

func (w *WindowSet) getOrCreate(k string) *windowEntry {
	sh := w.shardFor(k)

	sh.mu.RLock()
	e, ok := sh.entries[k]
	sh.mu.RUnlock()
	if ok {
		return e
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[k]; ok {
		return e
	}
	e = &windowEntry{rings: make(map[string]*ring, len(w.specs))}
	for _, spec := range w.specs {
		e.rings[spec.Name] = newRing(spec.Capacity)
	}
	sh.entries[k] = e
	return e
}

// Add buffers the sample into every window for its entity.
func (w *WindowSet) Add(s event.MetricSample) {
	e := w.getOrCreate(s.TenantID + "\x00" + s.SignalType)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.rings {
		r.add(s)
	}
}

// Snapshot returns a copy of the named window's buffered samples for every
// entity. Entities whose buffers are empty are omitted.
func (w *WindowSet) Snapshot(window string) map[GroupKey][]event.MetricSample {
	out := make(map[GroupKey][]event.MetricSample)

	for _, sh := range w.shards {
		sh.mu.RLock()
		keys := make([]string, 0, len(sh.entries))
		entries := make([]*windowEntry, 0, len(sh.entries))
		for k, e := range sh.entries {
			keys = append(keys, k)
			entries = append(entries, e)
		}
		sh.mu.RUnlock()

		for i, e := range entries {
			e.mu.Lock()
			r, ok := e.rings[window]
			var samples []event.MetricSample
			if ok && r.size > 0 {
				samples = r.snapshot()
			}
			e.mu.Unlock()

			if len(samples) == 0 {
				continue
			}
			tenant, signal := splitKey(keys[i])
			out[GroupKey{TenantID: tenant, SignalType: signal}] = samples
		}
	}

	return out
}

// Occupancy reports the buffered sample count per window name, for health
// reporting.
func (w *WindowSet) Occupancy() map[string]int {
	out := make(map[string]int, len(w.specs))
	for _, sh := range w.shards {
		sh.mu.RLock()
		entries := make([]*windowEntry, 0, len(sh.entries))
		for _, e := range sh.entries {
			entries = append(entries, e)
		}
		sh.mu.RUnlock()

		for _, e := range entries {
			e.mu.Lock()
			for name, r := range e.rings {
				out[name] += r.size
			}
			e.mu.Unlock()
		}
	}
	return out
}

func splitKey(k string) (tenant, signal string) {
	for i := 0; i < len(k); i++ {
		if k[i] == 0 {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}
