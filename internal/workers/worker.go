package workers

import (
	"context"
	"sync"
)

// Worker is a background task owned by the WorkerManager.
type Worker interface {
	// Start blocks until ctx is done or Stop is called.
	Start(ctx context.Context) error

	Stop() error

	GetWorkerID() string
}

// BaseWorker holds the run state shared by all workers.
type BaseWorker struct {
	WorkerID string
	StopChan chan struct{}

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
}

func NewBaseWorker(workerID string) *BaseWorker {
	return &BaseWorker{
		WorkerID: workerID,
		StopChan: make(chan struct{}),
	}
}

func (w *BaseWorker) GetWorkerID() string {
	return w.WorkerID
}

// Stop is safe to call more than once.
func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		close(w.StopChan)
	})
	return nil
}

func (w *BaseWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *BaseWorker) setRunning(running bool) {
	w.mu.Lock()
	w.running = running
	w.mu.Unlock()
}
