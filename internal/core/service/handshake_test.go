package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/chatmesh-go/internal/core/domain"
)

func TestHandshakeCoordinatorResolveWakesWaiter(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")

	done := make(chan struct{})
	var got string
	var gotErr error
	go func() {
		defer close(done)
		got, gotErr = h.Wait(context.Background(), "alice", time.Second)
	}()

	// Give the waiter a moment to park on the cell.
	time.Sleep(10 * time.Millisecond)
	h.Resolve("alice", "code-1")

	<-done
	if gotErr != nil {
		t.Fatalf("Wait() error = %v", gotErr)
	}
	if got != "code-1" {
		t.Errorf("Wait() = %q, want %q", got, "code-1")
	}
}

func TestHandshakeCoordinatorRepeatedWaitsSeeSameArtifact(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")
	h.Resolve("alice", "code-1")

	for i := 0; i < 3; i++ {
		got, err := h.Wait(context.Background(), "alice", time.Second)
		if err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
		if got != "code-1" {
			t.Errorf("Wait() #%d = %q, want %q", i, got, "code-1")
		}
	}
}

func TestHandshakeCoordinatorRefreshedCodeServedToLaterWaits(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")
	h.Resolve("alice", "code-1")

	// Capabilities refresh unscanned codes. Parked waiters keep the code
	// they were woken with; waits arriving after the refresh get the
	// current one.
	h.Resolve("alice", "code-2")

	got, err := h.Wait(context.Background(), "alice", time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != "code-2" {
		t.Errorf("Wait() = %q, want refreshed artifact %q", got, "code-2")
	}
}

func TestHandshakeCoordinatorConcurrentWaitersOneArtifact(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")

	const waiters = 8
	results := make([]string, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.Wait(context.Background(), "alice", time.Second)
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	h.Resolve("alice", "code-1")
	wg.Wait()

	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d error = %v", i, errs[i])
		}
		if results[i] != "code-1" {
			t.Errorf("waiter %d got %q, want %q", i, results[i], "code-1")
		}
	}
}

func TestHandshakeCoordinatorTimeout(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")

	_, err := h.Wait(context.Background(), "alice", 20*time.Millisecond)
	if !errors.Is(err, domain.ErrHandshakeTimeout) {
		t.Fatalf("Wait() error = %v, want ErrHandshakeTimeout", err)
	}

	// The attempt stays registered: a retried wait on the same attempt
	// succeeds once the code finally arrives.
	h.Resolve("alice", "code-late")
	got, err := h.Wait(context.Background(), "alice", time.Second)
	if err != nil {
		t.Fatalf("retried Wait() error = %v", err)
	}
	if got != "code-late" {
		t.Errorf("retried Wait() = %q, want %q", got, "code-late")
	}
}

func TestHandshakeCoordinatorWaitWithoutAttempt(t *testing.T) {
	h := NewHandshakeCoordinator()

	_, err := h.Wait(context.Background(), "ghost", 20*time.Millisecond)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Wait() error = %v, want ErrSessionNotFound", err)
	}
}

func TestHandshakeCoordinatorBeginSupersedesPriorAttempt(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")

	done := make(chan error, 1)
	go func() {
		_, err := h.Wait(context.Background(), "alice", time.Second)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	h.Begin("alice")

	if err := <-done; !errors.Is(err, domain.ErrHandshakeSuperseded) {
		t.Fatalf("stale waiter error = %v, want ErrHandshakeSuperseded", err)
	}

	// The new attempt proceeds independently.
	h.Resolve("alice", "code-2")
	got, err := h.Wait(context.Background(), "alice", time.Second)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got != "code-2" {
		t.Errorf("Wait() = %q, want %q", got, "code-2")
	}
}

func TestHandshakeCoordinatorFailRejectsWaiter(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")

	cause := domain.ErrCapabilityFailure.WithDetails("auth rejected")
	done := make(chan error, 1)
	go func() {
		_, err := h.Wait(context.Background(), "alice", time.Second)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	h.Fail("alice", cause)

	if err := <-done; !errors.Is(err, domain.ErrCapabilityFailure) {
		t.Fatalf("waiter error = %v, want ErrCapabilityFailure", err)
	}
	if _, ok := h.Artifact("alice"); ok {
		t.Error("Artifact() present after Fail()")
	}
}

func TestHandshakeCoordinatorWaitCanceledContext(t *testing.T) {
	h := NewHandshakeCoordinator()
	h.Begin("alice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Wait(ctx, "alice", time.Second)
	if !errors.Is(err, domain.ErrHandshakeTimeout) {
		t.Fatalf("Wait() error = %v, want ErrHandshakeTimeout", err)
	}
}
