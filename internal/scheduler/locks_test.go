package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TestPathLocks_BasicLockUnlock verifies basic lock/unlock operations.
func TestPathLocks_BasicLockUnlock(t *testing.T) {
	locks := NewPathLocks()

	// Lock and unlock should not panic
	locks.Lock("build/app")
	locks.Unlock("build/app")

	// Should be able to lock again after unlock
	locks.Lock("build/app")
	locks.Unlock("build/app")
}

// TestPathLocks_SamePathBlocks verifies that locking the same path blocks concurrent access.
func TestPathLocks_SamePathBlocks(t *testing.T) {
	locks := NewPathLocks()
	orderChan := make(chan int, 2)

	// Goroutine A locks the artifact path first
	go func() {
		locks.Lock("build/app")
		orderChan <- 1
		time.Sleep(50 * time.Millisecond) // Hold the lock briefly
		locks.Unlock("build/app")
	}()

	// Give goroutine A time to acquire the lock
	time.Sleep(10 * time.Millisecond)

	// Goroutine B tries to lock the same path - should block
	go func() {
		locks.Lock("build/app")
		orderChan <- 2
		locks.Unlock("build/app")
	}()

	// Verify ordering: A acquired first, then B
	first := <-orderChan
	second := <-orderChan

	if first != 1 || second != 2 {
		t.Errorf("Expected order [1, 2], got [%d, %d]", first, second)
	}
}

// TestPathLocks_DifferentPathsConcurrent verifies that locking different paths doesn't block.
func TestPathLocks_DifferentPathsConcurrent(t *testing.T) {
	locks := NewPathLocks()
	var wg sync.WaitGroup
	var aLocked, bLocked atomic.Bool

	wg.Add(2)

	// Goroutine A locks one artifact
	go func() {
		defer wg.Done()
		locks.Lock("build/a.out")
		aLocked.Store(true)
		time.Sleep(20 * time.Millisecond)
		locks.Unlock("build/a.out")
	}()

	// Goroutine B locks another
	go func() {
		defer wg.Done()
		locks.Lock("build/b.out")
		bLocked.Store(true)
		time.Sleep(20 * time.Millisecond)
		locks.Unlock("build/b.out")
	}()

	// Give both goroutines time to acquire their locks
	time.Sleep(10 * time.Millisecond)

	// Both should have acquired locks (no blocking)
	if !aLocked.Load() || !bLocked.Load() {
		t.Error("Both goroutines should have acquired their locks concurrently")
	}

	wg.Wait()
}

// TestPathLocks_LockAllOrdering verifies that LockAll sorts and prevents deadlocks.
func TestPathLocks_LockAllOrdering(t *testing.T) {
	locks := NewPathLocks()
	var wg sync.WaitGroup

	// Both goroutines try to lock the same paths in different orders.
	// If LockAll doesn't sort, this could deadlock
	wg.Add(2)

	// Goroutine A: locks ["build/lib", "build/app"]
	go func() {
		defer wg.Done()
		locks.LockAll([]string{"build/lib", "build/app"})
		time.Sleep(10 * time.Millisecond)
		locks.UnlockAll([]string{"build/lib", "build/app"})
	}()

	// Goroutine B: locks ["build/app", "build/lib"]
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond) // Slight delay to ensure A acquires first
		locks.LockAll([]string{"build/app", "build/lib"})
		time.Sleep(10 * time.Millisecond)
		locks.UnlockAll([]string{"build/app", "build/lib"})
	}()

	// Wait with timeout to catch deadlocks
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Success - no deadlock
	case <-time.After(2 * time.Second):
		t.Fatal("Deadlock detected: LockAll did not prevent deadlock through ordering")
	}
}

// TestPathLocks_UnlockAllReleasesAll verifies that UnlockAll releases all locks.
func TestPathLocks_UnlockAllReleasesAll(t *testing.T) {
	locks := NewPathLocks()

	// Lock multiple artifact paths
	paths := []string{"build/app", "build/lib", "build/gen"}
	locks.LockAll(paths)

	// Unlock all
	locks.UnlockAll(paths)

	// Another goroutine should be able to acquire all locks
	acquired := make(chan bool, 1)
	go func() {
		locks.LockAll(paths)
		acquired <- true
		locks.UnlockAll(paths)
	}()

	select {
	case <-acquired:
		// Success - locks were released
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Locks were not fully released by UnlockAll")
	}
}

// TestPathLocks_EmptyPaths verifies that LockAll/UnlockAll handle empty slices.
func TestPathLocks_EmptyPaths(t *testing.T) {
	locks := NewPathLocks()

	// Should not panic
	locks.LockAll([]string{})
	locks.UnlockAll([]string{})
}
