package pipeline

import (
	"container/heap"
	"log/slog"
	"sync"

	"github.com/fairyhunter13/cv-ranking-engine/internal/adapter/observability"
)

// Task priorities. Higher runs first; equal priorities run FIFO.
const (
	PriorityBatch       = 0
	PriorityInteractive = 10
)

// Admission bounds how many analysis tasks run simultaneously. A fixed pool
// of workers drains a shared queue ordered by priority descending, FIFO
// within a priority. Workers advance regardless of task outcome; a panicking
// task never corrupts queue state. Construct one per process and inject it;
// there is no package-level instance.
type Admission struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending taskHeap
	seq     uint64
	closed  bool
	wg      sync.WaitGroup
}

type task struct {
	priority int
	seq      uint64
	run      func()
}

// NewAdmission starts maxConcurrent workers. maxConcurrent below 1 is
// treated as 1.
func NewAdmission(maxConcurrent int) *Admission {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	a := &Admission{}
	a.cond = sync.NewCond(&a.mu)
	a.wg.Add(maxConcurrent)
	for i := 0; i < maxConcurrent; i++ {
		go a.worker()
	}
	return a
}

// Submit queues fn at the given priority. It returns false after Close.
func (a *Admission) Submit(priority int, fn func()) bool {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false
	}
	a.seq++
	heap.Push(&a.pending, &task{priority: priority, seq: a.seq, run: fn})
	observability.QueueDepth.Set(float64(a.pending.Len()))
	a.mu.Unlock()
	a.cond.Signal()
	return true
}

// Depth reports the number of queued (not yet running) tasks.
func (a *Admission) Depth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending.Len()
}

// Close stops accepting tasks, drains the queue, and waits for workers.
func (a *Admission) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.cond.Broadcast()
	a.wg.Wait()
}

func (a *Admission) worker() {
	defer a.wg.Done()
	for {
		a.mu.Lock()
		for a.pending.Len() == 0 && !a.closed {
			a.cond.Wait()
		}
		if a.pending.Len() == 0 && a.closed {
			a.mu.Unlock()
			return
		}
		t := heap.Pop(&a.pending).(*task)
		observability.QueueDepth.Set(float64(a.pending.Len()))
		a.mu.Unlock()
		runTask(t)
	}
}

func runTask(t *task) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("analysis task panicked", slog.Any("recover", rec))
		}
	}()
	t.run()
}

// taskHeap orders by priority descending, then submission order.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*task)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
