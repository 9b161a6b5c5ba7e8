// Sentinel - Real-Time Security Telemetry Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sentinel

package baseline

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

func TestStoreWarmup(t *testing.T) {
	s := NewStore(Config{Retention: 100, MinSamples: 5})
	now := time.Now().UTC()

	for i := 0; i < 4; i++ {
		s.Update("acme", "cpu", 10, now)
		if _, ok := s.Snapshot("acme", "cpu"); ok {
			t.Fatalf("baseline available after %d samples, warm-up is 5", i+1)
		}
	}

	s.Update("acme", "cpu", 10, now)
	b, ok := s.Snapshot("acme", "cpu")
	if !ok {
		t.Fatal("baseline unavailable after reaching warm-up threshold")
	}
	if b.SampleCount != 5 {
		t.Errorf("SampleCount = %d, want 5", b.SampleCount)
	}
}

func TestStoreUnknownEntity(t *testing.T) {
	s := NewStore(DefaultConfig())
	if _, ok := s.Snapshot("acme", "never_seen"); ok {
		t.Error("expected no baseline for unknown entity")
	}
}

func TestStoreStatistics(t *testing.T) {
	s := NewStore(Config{Retention: 100, MinSamples: 2})
	now := time.Now().UTC()

	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		s.Update("acme", "latency", v, now)
	}

	b, ok := s.Snapshot("acme", "latency")
	if !ok {
		t.Fatal("baseline unavailable")
	}
	if b.Mean != 5 {
		t.Errorf("Mean = %v, want 5", b.Mean)
	}
	// Sample stddev: sum of squared deviations is 32, divisor n-1=7.
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(b.StdDev-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", b.StdDev, want)
	}
	if b.Min != 2 || b.Max != 9 {
		t.Errorf("Min/Max = %v/%v, want 2/9", b.Min, b.Max)
	}
	if b.SampleCount != 8 {
		t.Errorf("SampleCount = %d, want 8", b.SampleCount)
	}
}

func TestStoreRetentionDropsOldest(t *testing.T) {
	s := NewStore(Config{Retention: 5, MinSamples: 2})
	now := time.Now().UTC()

	// Fill with 100s, then push them all out with 1s.
	for i := 0; i < 5; i++ {
		s.Update("acme", "cpu", 100, now)
	}
	for i := 0; i < 5; i++ {
		s.Update("acme", "cpu", 1, now)
	}

	b, ok := s.Snapshot("acme", "cpu")
	if !ok {
		t.Fatal("baseline unavailable")
	}
	if b.Mean != 1 {
		t.Errorf("Mean = %v, want 1 after old samples evicted", b.Mean)
	}
	if b.Max != 1 {
		t.Errorf("Max = %v, want 1 after old samples evicted", b.Max)
	}
	if b.SampleCount != 5 {
		t.Errorf("SampleCount = %d, want retention cap 5", b.SampleCount)
	}
}

func TestStoreSampleCountMonotonicUntilCap(t *testing.T) {
	s := NewStore(Config{Retention: 10, MinSamples: 2})
	now := time.Now().UTC()

	prev := 0
	for i := 0; i < 25; i++ {
		s.Update("acme", "cpu", float64(i), now)
		b, ok := s.Snapshot("acme", "cpu")
		if !ok {
			continue
		}
		if b.SampleCount < prev {
			t.Fatalf("SampleCount decreased: %d -> %d", prev, b.SampleCount)
		}
		if b.SampleCount > 10 {
			t.Fatalf("SampleCount %d exceeds retention 10", b.SampleCount)
		}
		prev = b.SampleCount
	}
	if prev != 10 {
		t.Errorf("final SampleCount = %d, want 10", prev)
	}
}

func TestStoreEntityIsolation(t *testing.T) {
	s := NewStore(Config{Retention: 100, MinSamples: 2})
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		s.Update("acme", "cpu", 10, now)
		s.Update("acme", "memory", 500, now)
		s.Update("globex", "cpu", 99, now)
	}

	cpu, _ := s.Snapshot("acme", "cpu")
	mem, _ := s.Snapshot("acme", "memory")
	other, _ := s.Snapshot("globex", "cpu")

	if cpu.Mean != 10 || mem.Mean != 500 || other.Mean != 99 {
		t.Errorf("entity baselines bled into each other: %v %v %v", cpu.Mean, mem.Mean, other.Mean)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestStoreMinSamplesClampedToRetention(t *testing.T) {
	s := NewStore(Config{Retention: 10, MinSamples: 50})
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		s.Update("acme", "cpu", 1, now)
	}
	if _, ok := s.Snapshot("acme", "cpu"); !ok {
		t.Error("baseline should be available once retention is full")
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore(Config{Retention: 1000, MinSamples: 2})
	now := time.Now().UTC()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			tenant := fmt.Sprintf("tenant-%d", g)
			for i := 0; i < 500; i++ {
				s.Update(tenant, "cpu", float64(i), now)
				s.Snapshot(tenant, "cpu")
			}
		}(g)
	}
	wg.Wait()

	if s.Len() != 8 {
		t.Errorf("Len = %d, want 8", s.Len())
	}
	for g := 0; g < 8; g++ {
		b, ok := s.Snapshot(fmt.Sprintf("tenant-%d", g), "cpu")
		if !ok || b.SampleCount != 500 {
			t.Errorf("tenant-%d: ok=%v count=%d, want 500", g, ok, b.SampleCount)
		}
	}
}
