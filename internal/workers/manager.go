package workers

import (
	"context"
	"errors"
	"sync"

	"github.com/nestify/discovery/pkg/logger"
)

// WorkerManager runs workers in their own goroutines and stops them together.
type WorkerManager struct {
	workers []Worker
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWorkerManager() *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers: make([]Worker, 0),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a worker. Call before StartAll.
func (wm *WorkerManager) Add(worker Worker) {
	wm.workers = append(wm.workers, worker)
}

func (wm *WorkerManager) StartAll() {
	for _, worker := range wm.workers {
		wm.startWorker(worker)
	}
	logger.Infof("Started %d workers", len(wm.workers))
}

// StopAll cancels every worker and waits for them to return.
func (wm *WorkerManager) StopAll() {
	logger.Info("Stopping all workers...")

	wm.cancel()
	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			logger.WithError(err).WithField("worker", worker.GetWorkerID()).Warnf("Error stopping worker")
		}
	}

	wm.wg.Wait()
	logger.Info("All workers stopped")
}

func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).WithField("worker", worker.GetWorkerID()).Errorf("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus reports which workers are running.
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	status := make(map[string]bool, len(wm.workers))
	for _, worker := range wm.workers {
		running := false
		if r, ok := worker.(interface{ IsRunning() bool }); ok {
			running = r.IsRunning()
		}
		status[worker.GetWorkerID()] = running
	}
	return status
}
