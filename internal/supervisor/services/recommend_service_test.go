// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeEngine struct {
	mu         sync.Mutex
	loads      int
	rebuilds   int
	loadErrs   []error
	rebuildErr error
}

func (f *fakeEngine) Load(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if len(f.loadErrs) > 0 {
		err := f.loadErrs[0]
		f.loadErrs = f.loadErrs[1:]
		return err
	}
	return nil
}

func (f *fakeEngine) Rebuild(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	return f.rebuildErr
}

func (f *fakeEngine) counts() (loads, rebuilds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.rebuilds
}

// serveFor runs svc until d elapses and returns Serve's result.
func serveFor(t *testing.T, svc *RecommendService, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return svc.Serve(ctx)
}

func TestRecommendService_String(t *testing.T) {
	svc := NewRecommendService(&fakeEngine{}, RecommendServiceConfig{}, zerolog.Nop())
	if got := svc.String(); got != "recommend-service" {
		t.Errorf("String() = %q, want recommend-service", got)
	}
}

func TestRecommendService_LoadsOnce(t *testing.T) {
	engine := &fakeEngine{}
	svc := NewRecommendService(engine, RecommendServiceConfig{}, zerolog.Nop())

	if err := serveFor(t, svc, 20*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() error = %v, want deadline exceeded", err)
	}
	// A supervisor restart must not reload.
	_ = serveFor(t, svc, 10*time.Millisecond)

	loads, rebuilds := engine.counts()
	if loads != 1 || rebuilds != 0 {
		t.Errorf("loads/rebuilds = %d/%d, want 1/0", loads, rebuilds)
	}
}

func TestRecommendService_LoadFailureIsReturned(t *testing.T) {
	loadErr := errors.New("artifact store unreadable")
	engine := &fakeEngine{loadErrs: []error{loadErr}}
	svc := NewRecommendService(engine, RecommendServiceConfig{RebuildOnStartup: true}, zerolog.Nop())

	if err := serveFor(t, svc, time.Second); !errors.Is(err, loadErr) {
		t.Fatalf("Serve() error = %v, want %v", err, loadErr)
	}
	if _, rebuilds := engine.counts(); rebuilds != 0 {
		t.Errorf("rebuilds after failed load = %d, want 0", rebuilds)
	}

	// The retry succeeds and runs the startup rebuild.
	_ = serveFor(t, svc, 20*time.Millisecond)
	loads, rebuilds := engine.counts()
	if loads != 2 || rebuilds != 1 {
		t.Errorf("loads/rebuilds = %d/%d, want 2/1", loads, rebuilds)
	}
}

func TestRecommendService_RebuildOnStartup(t *testing.T) {
	engine := &fakeEngine{rebuildErr: errors.New("no events")}
	svc := NewRecommendService(engine, RecommendServiceConfig{RebuildOnStartup: true}, zerolog.Nop())

	// A failed rebuild does not stop the service.
	if err := serveFor(t, svc, 20*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Serve() error = %v, want deadline exceeded", err)
	}
	if _, rebuilds := engine.counts(); rebuilds != 1 {
		t.Errorf("rebuilds = %d, want 1", rebuilds)
	}
}

func TestRecommendService_ScheduledRebuilds(t *testing.T) {
	engine := &fakeEngine{}
	svc := NewRecommendService(engine, RecommendServiceConfig{RebuildInterval: 10 * time.Millisecond}, zerolog.Nop())

	_ = serveFor(t, svc, 75*time.Millisecond)

	if _, rebuilds := engine.counts(); rebuilds < 2 {
		t.Errorf("rebuilds = %d, want at least 2", rebuilds)
	}
}
