// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*MockService)(nil)

// waitForStarts polls until the service has been started at least n
// times. Polling keeps the tests stable on loaded CI machines where a
// fixed sleep would race the supervisor's backoff.
func waitForStarts(t *testing.T, svc *MockService, n int32, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if svc.StartCount() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("service started %d times within %v, want at least %d", svc.StartCount(), timeout, n)
}

func TestMockServiceRunsUntilCanceled(t *testing.T) {
	svc := NewMockService("catalog-loader")

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if got := svc.StartCount(); got != 1 {
		t.Errorf("StartCount = %d, want 1", got)
	}
	if svc.String() != "catalog-loader" {
		t.Errorf("String = %q, want catalog-loader", svc.String())
	}
}

func TestMockServiceFailureScript(t *testing.T) {
	svc := NewMockService("flaky")
	svc.SetFailCount(2)

	// The scripted failures are consumed one per Serve call.
	for i := 0; i < 2; i++ {
		if err := svc.Serve(context.Background()); err == nil {
			t.Fatalf("Serve call %d returned nil, want scripted failure", i+1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve after script exhausted returned %v, want deadline", err)
	}

	if got := svc.StartCount(); got != 3 {
		t.Errorf("StartCount = %d, want 3", got)
	}
}

func TestMockServiceConfiguredError(t *testing.T) {
	svc := NewMockService("broken")
	svc.SetError(errors.New("listener lost"))

	err := svc.Serve(context.Background())
	if err == nil || err.Error() != "listener lost" {
		t.Errorf("Serve returned %v, want configured error", err)
	}
}

func TestSupervisorRestartsFailedService(t *testing.T) {
	svc := NewMockService("trainer-service")
	svc.SetFailCount(2)

	sup := suture.New("index-layer", suture.Spec{
		FailureThreshold: 10,
		FailureDecay:     1,
		FailureBackoff:   5 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Serve(ctx)

	// Two scripted failures plus the run that sticks.
	waitForStarts(t, svc, 3, 2*time.Second)
}

func TestSupervisorHonorsDoNotRestart(t *testing.T) {
	svc := NewMockService("one-shot-load")
	svc.SetError(suture.ErrDoNotRestart)

	sup := suture.New("index-layer", suture.Spec{
		FailureThreshold: 10,
		FailureBackoff:   5 * time.Millisecond,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Serve(ctx)

	waitForStarts(t, svc, 1, time.Second)
	time.Sleep(60 * time.Millisecond)

	if got := svc.StartCount(); got != 1 {
		t.Errorf("StartCount = %d after ErrDoNotRestart, want exactly 1", got)
	}
}

func TestServiceCanTerminateTree(t *testing.T) {
	svc := NewMockService("fatal")
	svc.SetError(suture.ErrTerminateSupervisorTree)

	sup := suture.New("api-layer", suture.Spec{
		FailureThreshold: 10,
		Timeout:          100 * time.Millisecond,
	})
	sup.Add(svc)

	done := make(chan error, 1)
	go func() {
		done <- sup.Serve(context.Background())
	}()

	select {
	case err := <-done:
		if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
			t.Logf("Serve returned %v; suture may wrap ErrTerminateSupervisorTree", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor kept running after ErrTerminateSupervisorTree")
	}
}

func TestNestedSupervisorStartsGrandchildren(t *testing.T) {
	// Mirrors the production shape: a root supervisor owning layer
	// supervisors that own the actual services.
	hub := NewMockService("event-hub")
	indexLayer := suture.NewSimple("index-layer")
	indexLayer.Add(hub)

	root := suture.NewSimple("bibliotheca")
	root.Add(indexLayer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go root.Serve(ctx)

	waitForStarts(t, hub, 1, time.Second)

	cancel()
}
