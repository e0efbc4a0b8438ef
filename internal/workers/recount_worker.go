package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nestify/discovery/pkg/logger"
)

// UnitRecounter refreshes the unit counters of every project.
type UnitRecounter interface {
	RecomputeAll(ctx context.Context) (int, error)
}

// RecountWorker keeps project unit counters in line with their properties.
type RecountWorker struct {
	*BaseWorker
	recounter UnitRecounter
	interval  time.Duration
}

func NewRecountWorker(workerID string, recounter UnitRecounter, interval time.Duration) *RecountWorker {
	return &RecountWorker{
		BaseWorker: NewBaseWorker(workerID),
		recounter:  recounter,
		interval:   interval,
	}
}

// Start recounts once, then on every tick. A non-positive interval disables
// the worker.
func (w *RecountWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		logger.WithField("worker", w.WorkerID).Info("Recount worker disabled")
		return nil
	}

	w.setRunning(true)
	defer w.setRunning(false)
	logger.WithField("worker", w.WorkerID).Infof("Recount worker started, interval %s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.recount(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.StopChan:
			logger.WithField("worker", w.WorkerID).Info("Recount worker stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *RecountWorker) recount(ctx context.Context) {
	start := time.Now()
	done, err := w.recounter.RecomputeAll(ctx)
	entry := logger.WithFields(logrus.Fields{
		"worker":   w.WorkerID,
		"projects": done,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("Project recount interrupted")
		return
	}
	entry.Debug("Projects recounted")
}
