// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

// stubServer fakes the HTTPServer interface with swappable behavior.
// The default wiring behaves like a healthy *http.Server: ListenAndServe
// blocks until Shutdown, then reports http.ErrServerClosed.
type stubServer struct {
	listenFn   func() error
	shutdownFn func(context.Context) error

	started     chan struct{}
	startedOnce sync.Once
	shutdowns   atomic.Int32
}

func newStubServer() *stubServer {
	s := &stubServer{started: make(chan struct{})}
	stop := make(chan struct{})
	s.listenFn = func() error {
		<-stop
		return http.ErrServerClosed
	}
	s.shutdownFn = func(context.Context) error {
		close(stop)
		return nil
	}
	return s
}

func (s *stubServer) ListenAndServe() error {
	s.startedOnce.Do(func() { close(s.started) })
	return s.listenFn()
}

func (s *stubServer) Shutdown(ctx context.Context) error {
	s.shutdowns.Add(1)
	return s.shutdownFn(ctx)
}

func (s *stubServer) awaitStart(t *testing.T) {
	t.Helper()
	select {
	case <-s.started:
	case <-time.After(time.Second):
		t.Fatal("ListenAndServe was never called")
	}
}

func TestHTTPServiceDefaults(t *testing.T) {
	for _, timeout := range []time.Duration{0, -3 * time.Second} {
		svc := NewHTTPServerService(newStubServer(), timeout)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout for input %v = %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}

	svc := NewHTTPServerService(newStubServer(), 5*time.Second)
	if svc.shutdownTimeout != 5*time.Second {
		t.Errorf("shutdownTimeout = %v, want 5s", svc.shutdownTimeout)
	}
	if svc.String() != "http-server" {
		t.Errorf("String = %q, want http-server", svc.String())
	}
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newStubServer()
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	server.awaitStart(t)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if got := server.shutdowns.Load(); got != 1 {
		t.Errorf("Shutdown called %d times, want 1", got)
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	bindErr := errors.New("listen tcp :8020: address already in use")
	server := newStubServer()
	server.listenFn = func() error { return bindErr }
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Fatalf("Serve returned %v, want wrapped bind error", err)
	}
	if got := server.shutdowns.Load(); got != 0 {
		t.Errorf("Shutdown called %d times on startup failure, want 0", got)
	}
}

func TestHTTPServiceCleanListenerExit(t *testing.T) {
	// A listener that stops on its own, without error and without a
	// cancel, is a normal completion.
	server := newStubServer()
	server.listenFn = func() error { return nil }
	svc := NewHTTPServerService(server, time.Second)

	if err := svc.Serve(context.Background()); err != nil {
		t.Errorf("Serve returned %v, want nil for clean listener exit", err)
	}
}

func TestHTTPServiceShutdownFailure(t *testing.T) {
	drainErr := errors.New("connections still draining")
	server := newStubServer()
	stop := make(chan struct{})
	server.listenFn = func() error {
		<-stop
		return http.ErrServerClosed
	}
	server.shutdownFn = func(context.Context) error {
		close(stop)
		return drainErr
	}
	svc := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	server.awaitStart(t)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, drainErr) {
			t.Errorf("Serve returned %v, want wrapped shutdown error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestHTTPServiceShutdownGetsOwnDeadline(t *testing.T) {
	server := newStubServer()
	stop := make(chan struct{})
	deadlineSet := make(chan bool, 1)
	server.listenFn = func() error {
		<-stop
		return http.ErrServerClosed
	}
	server.shutdownFn = func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		deadlineSet <- ok
		close(stop)
		return nil
	}
	svc := NewHTTPServerService(server, 3*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	server.awaitStart(t)
	cancel()
	<-done

	// The serve context is already dead at shutdown time, so the
	// shutdown context must carry its own deadline to bound draining.
	select {
	case ok := <-deadlineSet:
		if !ok {
			t.Error("shutdown context has no deadline")
		}
	default:
		t.Fatal("Shutdown was never called")
	}
}

func TestHTTPServiceUnderSupervisor(t *testing.T) {
	server := newStubServer()
	svc := NewHTTPServerService(server, time.Second)

	sup := suture.NewSimple("api-layer")
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	server.awaitStart(t)
	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	if got := server.shutdowns.Load(); got < 1 {
		t.Error("Shutdown was not called during supervised stop")
	}
}
