package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler processes one task. Returned errors are logged; they never stop
// the pool.
type Handler func(ctx context.Context, task Task) error

// Pool runs a fixed number of workers draining a Queue.
type Pool struct {
	queue        Queue
	handler      Handler
	workers      int
	logger       *zap.Logger
	pollInterval time.Duration
}

// NewPool builds a pool with at least one worker.
func NewPool(queue Queue, handler Handler, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		queue:        queue,
		handler:      handler,
		workers:      workers,
		logger:       logger,
		pollInterval: time.Second,
	}
}

// Run blocks until ctx is cancelled or the queue is closed and drained.
// In-flight tasks are finished with a context that is not cancelled by
// shutdown so every dequeued report still reaches a terminal record.
func (p *Pool) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		workerID := i
		g.Go(func() error {
			return p.loop(gctx, workerID)
		})
	}
	p.logger.Info("triage workers started", zap.Int("workers", p.workers))
	err := g.Wait()
	p.logger.Info("triage workers stopped")
	return err
}

func (p *Pool) loop(ctx context.Context, workerID int) error {
	for {
		task, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("dequeue failed", zap.Int("worker", workerID), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.pollInterval):
			}
			continue
		}
		p.handle(context.WithoutCancel(ctx), workerID, task)
	}
}

func (p *Pool) handle(ctx context.Context, workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("triage task panicked",
				zap.Int("worker", workerID),
				zap.String("request_id", task.RequestID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := p.handler(ctx, task); err != nil {
		p.logger.Error("triage task failed",
			zap.Int("worker", workerID),
			zap.String("request_id", task.RequestID),
			zap.Error(err))
	}
}
