// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

// Package baseline maintains per-(tenant, signal type) rolling statistics and
// scores new samples against them.
//
// The store is an injected, lock-striped in-memory structure owned by a single
// instance and passed explicitly to the processor and detector. Baselines live
// only for the lifetime of the worker process; they are reconstructible by
// replaying the bounded history after a restart. That non-durability is a
// deliberate tradeoff, not an oversight.
package baseline

import (
	"hash/fnv"
	"math"
	"sync"
	"time"
)

// shardCount is the number of lock stripes. A power of two so the hash can be
// masked instead of modded.
const shardCount = 64

// DefaultRetention is the bounded history size per (tenant, signal type).
const DefaultRetention = 1000

// DefaultMinSamples is the warm-up threshold: a baseline publishes statistics
// only once it has seen at least this many samples.
const DefaultMinSamples = 50

// Config holds store tuning parameters.
type Config struct {
	// Retention is the number of raw values kept per entity. The deque
	// drops the oldest value once full, keeping the baseline adaptive to
	// regime shifts.
	Retention int

	// MinSamples is the number of observations required before the
	// baseline is considered available.
	MinSamples int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Retention:  DefaultRetention,
		MinSamples: DefaultMinSamples,
	}
}

// Baseline is a point-in-time snapshot of one entity's rolling statistics.
type Baseline struct {
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"stddev"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	SampleCount int       `json:"sample_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// entry holds the mutable state for one (tenant, signal type) pair.
// All fields are guarded by the entry's own mutex so updates for unrelated
// entities never contend.
type entry struct {
	mu sync.Mutex

	// values is a fixed-capacity ring; start/size implement the deque.
	values []float64
	start  int
	size   int

	stats       Baseline
	lastUpdated time.Time
}

// Store holds baselines for all entities, striped across shards keyed by a
// hash of (tenant, signal type).
type Store struct {
	cfg    Config
	shards [shardCount]*shard
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates a baseline store with the given configuration.
// Zero values fall back to defaults.
func NewStore(cfg Config) *Store {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultMinSamples
	}
	if cfg.MinSamples > cfg.Retention {
		cfg.MinSamples = cfg.Retention
	}

	s := &Store{cfg: cfg}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s
}

// key builds the shard map key. Tenant and signal are joined with a NUL so
// ("a", "bc") and ("ab", "c") never collide.
func key(tenantID, signalType string) string {
	return tenantID + "\x00" + signalType
}

func (s *Store) shardFor(k string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k))
	return s.shards[h.Sum32()&(shardCount-1)]
}

// getOrCreate returns the entry for the key, creating it on first use.
func (s *Store) getOrCreate(k string) *entry {
	sh := s.shardFor(k)

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
	e = &entry{values: make([]float64, s.cfg.Retention)}
	sh.entries[k] = e
	return e
}

// Update records one sample for the entity, dropping the oldest retained
// value when the deque is full, and recomputes the rolling statistics from
// the retained window.
//
// Updates for the same entity must be applied in arrival order; the caller's
// detect-then-update sequencing depends on it.
func (s *Store) Update(tenantID, signalType string, value float64, observedAt time.Time) {
	e := s.getOrCreate(key(tenantID, signalType))

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.size == len(e.values) {
		// Full: overwrite the oldest slot.
		e.values[e.start] = value
		e.start = (e.start + 1) % len(e.values)
	} else {
		e.values[(e.start+e.size)%len(e.values)] = value
		e.size++
	}

	e.lastUpdated = observedAt
	e.recompute()
}

// recompute rebuilds mean/stddev/min/max from the retained window.
// O(retention) per update is acceptable at expected per-entity arrival rates;
// see DESIGN.md for the Welford migration path.
// Must be called with e.mu held.
func (e *entry) recompute() {
	n := e.size
	if n == 0 {
		e.stats = Baseline{}
		return
	}

	minV := math.Inf(1)
	maxV := math.Inf(-1)
	sum := 0.0
	for i := 0; i < n; i++ {
		v := e.values[(e.start+i)%len(e.values)]
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	mean := sum / float64(n)

	stddev := 0.0
	if n > 1 {
		var sq float64
		for i := 0; i < n; i++ {
			d := e.values[(e.start+i)%len(e.values)] - mean
			sq += d * d
		}
		// Sample standard deviation, matching statistics.stdev semantics.
		stddev = math.Sqrt(sq / float64(n-1))
	}

	e.stats = Baseline{
		Mean:        mean,
		StdDev:      stddev,
		Min:         minV,
		Max:         maxV,
		SampleCount: n,
		LastUpdated: e.lastUpdated,
	}
}

// Snapshot returns the entity's baseline. The second return is false until
// the warm-up threshold is reached, which callers surface as
// baseline_available=false rather than an error.
func (s *Store) Snapshot(tenantID, signalType string) (Baseline, bool) {
	sh := s.shardFor(key(tenantID, signalType))

	sh.mu.RLock()
	e, ok := sh.entries[key(tenantID, signalType)]
	sh.mu.RUnlock()
	if !ok {
		return Baseline{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.size < s.cfg.MinSamples {
		return Baseline{}, false
	}
	b := e.stats
	b.LastUpdated = e.lastUpdated
	return b, true
}

// Len returns the number of tracked (tenant, signal type) entities.
func (s *Store) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}
