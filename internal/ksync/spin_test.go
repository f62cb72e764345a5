package ksync

import (
	"sync"
	"testing"
)

func TestSpinTryLockSucceedsOnceThenFails(t *testing.T) {
	var s SpinLock
	if !s.TryLock() {
		t.Fatal("first TryLock should succeed")
	}
	if s.TryLock() {
		t.Fatal("second TryLock should fail while held")
	}
}

func TestSpinUnlockAllowsReacquire(t *testing.T) {
	var s SpinLock
	s.Lock()
	s.Unlock()
	if !s.TryLock() {
		t.Fatal("TryLock should succeed again after Unlock")
	}
}

func TestSpinLockSerializesConcurrentIncrements(t *testing.T) {
	var s SpinLock
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock()
			counter++
			s.Unlock()
		}()
	}
	wg.Wait()
	if counter != 100 {
		t.Fatalf("counter = %d, want 100 (no lost updates under contention)", counter)
	}
}
