// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(3, time.Minute)

	c.Set(ctx, "a", []string{"t1", "t2"})
	got, ok := c.Get(ctx, "a")
	if !ok {
		t.Fatal("Get() missed a stored key")
	}
	if want := []string{"t1", "t2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Get() = %v, want %v", got, want)
	}

	got[0] = "mutated"
	again, _ := c.Get(ctx, "a")
	if again[0] != "t1" {
		t.Error("Get() returned a slice aliasing the cached value")
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get() hit for a missing key")
	}

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d, want 2, 1, 1", hits, misses, size)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(3, time.Minute)

	c.Set(ctx, "a", []string{"1"})
	c.Set(ctx, "b", []string{"2"})
	c.Set(ctx, "c", []string{"3"})
	c.Get(ctx, "a") // b is now least recently used
	c.Set(ctx, "d", []string{"4"})

	tests := []struct {
		key  string
		want bool
	}{
		{key: "a", want: true},
		{key: "b", want: false},
		{key: "c", want: true},
		{key: "d", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if _, ok := c.Get(ctx, tt.key); ok != tt.want {
				t.Errorf("Get(%q) found = %v, want %v", tt.key, ok, tt.want)
			}
		})
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRUCache_Update(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2, time.Minute)

	c.Set(ctx, "a", []string{"old"})
	c.Set(ctx, "a", []string{"new"})

	got, _ := c.Get(ctx, "a")
	if !reflect.DeepEqual(got, []string{"new"}) {
		t.Errorf("Get() = %v, want [new]", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(10, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "a", []string{"1"})
	c.Set(ctx, "b", []string{"2"})

	now = now.Add(30 * time.Second)
	c.Set(ctx, "c", []string{"3"})

	now = now.Add(45 * time.Second)
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("Get() returned an expired entry")
	}
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if _, ok := c.Get(ctx, "c"); !ok {
		t.Error("Get() missed an unexpired entry")
	}
}

func TestLRUCache_Remove(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2, time.Minute)
	c.Set(ctx, "a", []string{"1"})

	if !c.Remove("a") {
		t.Error("Remove() = false for a present key")
	}
	if c.Remove("a") {
		t.Error("Remove() = true for an absent key")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(50, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%75)
				c.Set(ctx, key, []string{key})
				c.Get(ctx, key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds capacity 50", c.Len())
	}
}
