package scheduler

import (
	"sync"

	"github.com/xzmaster54088/Codemate-Android-sub002/internal/compile"
)

// waiterRegistry holds reply channels for callers blocked in WaitResult.
// Channels are buffered so resolving never blocks the scheduler.
type waiterRegistry struct {
	mu      sync.Mutex
	waiting map[string][]chan *compile.Result
}

func newWaiterRegistry() *waiterRegistry {
	return &waiterRegistry{
		waiting: make(map[string][]chan *compile.Result),
	}
}

// wait registers a reply channel for the task.
func (w *waiterRegistry) wait(id string) chan *compile.Result {
	ch := make(chan *compile.Result, 1)
	w.mu.Lock()
	w.waiting[id] = append(w.waiting[id], ch)
	w.mu.Unlock()
	return ch
}

// drop removes one registered channel, for callers that stop waiting.
func (w *waiterRegistry) drop(id string, ch chan *compile.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()

	chans := w.waiting[id]
	for i, c := range chans {
		if c == ch {
			w.waiting[id] = append(chans[:i], chans[i+1:]...)
			break
		}
	}
	if len(w.waiting[id]) == 0 {
		delete(w.waiting, id)
	}
}

// resolve delivers the result to every waiter of the task and clears them.
func (w *waiterRegistry) resolve(id string, res *compile.Result) {
	w.mu.Lock()
	chans := w.waiting[id]
	delete(w.waiting, id)
	w.mu.Unlock()

	for _, ch := range chans {
		ch <- res
	}
}
