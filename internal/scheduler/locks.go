package scheduler

import (
	"sort"
	"sync"
)

// PathLocks serializes tasks that write the same artifact path. Each path
// gets its own mutex, so builds targeting different outputs run concurrently
// while two tasks aimed at one output take turns.
type PathLocks struct {
	mu    sync.Mutex // Guards the locks map itself
	locks map[string]*sync.Mutex
}

// NewPathLocks creates an empty lock manager.
func NewPathLocks() *PathLocks {
	return &PathLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-path mutex, creating it on first use.
func (p *PathLocks) Lock(path string) {
	p.mu.Lock()
	pathLock, ok := p.locks[path]
	if !ok {
		pathLock = &sync.Mutex{}
		p.locks[path] = pathLock
	}
	p.mu.Unlock()

	// Acquired outside the manager lock so waiting on one path does not
	// stall unrelated paths
	pathLock.Lock()
}

// Unlock releases the per-path mutex.
func (p *PathLocks) Unlock(path string) {
	p.mu.Lock()
	pathLock, ok := p.locks[path]
	p.mu.Unlock()

	if ok {
		pathLock.Unlock()
	}
}

// LockAll acquires every given path in sorted order. Sorting before
// acquisition prevents deadlock between tasks sharing multiple paths.
func (p *PathLocks) LockAll(paths []string) {
	if len(paths) == 0 {
		return
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	for _, path := range sorted {
		p.Lock(path)
	}
}

// UnlockAll releases in reverse sorted order, symmetric with LockAll.
func (p *PathLocks) UnlockAll(paths []string) {
	if len(paths) == 0 {
		return
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	for i := len(sorted) - 1; i >= 0; i-- {
		p.Unlock(sorted[i])
	}
}
