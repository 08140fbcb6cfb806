// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// fakeHTTPServer blocks in ListenAndServe until Shutdown is called.
type fakeHTTPServer struct {
	listenErr   error
	shutdownErr error
	shutdowns   atomic.Int32
	closed      chan struct{}
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{closed: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.closed)
	return f.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer()
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	// Let the listener goroutine start, then request shutdown.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if got := server.shutdowns.Load(); got != 1 {
		t.Fatalf("shutdown calls = %d, want 1", got)
	}
}

func TestHTTPServiceListenFailure(t *testing.T) {
	server := newFakeHTTPServer()
	server.listenErr = errors.New("address already in use")
	svc := NewHTTPService(server, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, server.listenErr) {
		t.Fatalf("Serve returned %v, want wrapped listen error", err)
	}
}

func TestHTTPServiceName(t *testing.T) {
	if got := NewHTTPService(newFakeHTTPServer(), 0).String(); got != "http-server" {
		t.Fatalf("String() = %q", got)
	}
}

type fakeScheduler struct {
	startErr error
	started  atomic.Int32
	stopped  atomic.Int32
}

func (f *fakeScheduler) Start() error {
	f.started.Add(1)
	return f.startErr
}

func (f *fakeScheduler) Stop() { f.stopped.Add(1) }

func TestSchedulerServiceLifecycle(t *testing.T) {
	sched := &fakeScheduler{}
	svc := NewSchedulerService(sched)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if sched.started.Load() != 1 || sched.stopped.Load() != 1 {
		t.Fatalf("started=%d stopped=%d, want 1/1", sched.started.Load(), sched.stopped.Load())
	}
}

func TestSchedulerServiceStartFailure(t *testing.T) {
	sched := &fakeScheduler{startErr: errors.New("bad cron spec")}
	svc := NewSchedulerService(sched)

	if err := svc.Serve(context.Background()); !errors.Is(err, sched.startErr) {
		t.Fatalf("Serve returned %v, want start error", err)
	}
	if sched.stopped.Load() != 0 {
		t.Fatal("Stop should not run when Start fails")
	}
}
