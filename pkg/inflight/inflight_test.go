package inflight

import (
	"errors"
	"sync"
	"testing"
)

func TestAcquireRejectsReentry(t *testing.T) {
	g := NewGuard()

	if err := g.Acquire("join:ABCD1234"); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := g.Acquire("join:ABCD1234"); !errors.Is(err, ErrInProgress) {
		t.Errorf("expected ErrInProgress on re-entry, got %v", err)
	}

	// A different key is unaffected
	if err := g.Acquire("join:ZZZZ9999"); err != nil {
		t.Errorf("unrelated key should acquire, got %v", err)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	g := NewGuard()

	if err := g.Acquire("remove:1:2"); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	g.Release("remove:1:2")
	if err := g.Acquire("remove:1:2"); err != nil {
		t.Errorf("expected acquire after release to succeed, got %v", err)
	}
}

func TestConcurrentAcquireSingleWinner(t *testing.T) {
	g := NewGuard()

	const n = 32
	var wg sync.WaitGroup
	winners := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Acquire("invite:7") == nil {
				winners <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(winners)

	count := 0
	for range winners {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one winner, got %d", count)
	}
}
