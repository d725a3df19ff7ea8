package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

var (
	// ErrQueueFull is returned when a bounded queue cannot take more work.
	ErrQueueFull = errors.New("triage queue full")
	// ErrQueueClosed is returned once a queue stops accepting or yielding work.
	ErrQueueClosed = errors.New("triage queue closed")
)

// Task is one accepted report waiting for triage.
type Task struct {
	RequestID  string        `json:"request_id"`
	Report     domain.Report `json:"report"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// Queue hands accepted reports from the HTTP layer to triage workers.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
	Close() error
}

// MemoryQueue is a bounded in-process queue.
type MemoryQueue struct {
	tasks  chan Task
	closed chan struct{}
	once   sync.Once
}

// NewMemoryQueue creates a queue holding up to size pending tasks.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		tasks:  make(chan Task, size),
		closed: make(chan struct{}),
	}
}

// Enqueue never blocks; a full queue returns ErrQueueFull.
func (q *MemoryQueue) Enqueue(_ context.Context, task Task) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}
	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a task is available. Tasks still buffered when the
// queue is closed are handed out before ErrQueueClosed.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Task, error) {
	select {
	case task := <-q.tasks:
		return task, nil
	default:
	}
	select {
	case task := <-q.tasks:
		return task, nil
	case <-q.closed:
		select {
		case task := <-q.tasks:
			return task, nil
		default:
			return Task{}, ErrQueueClosed
		}
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// Close stops accepting new tasks.
func (q *MemoryQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}

// Len returns the number of buffered tasks.
func (q *MemoryQueue) Len() int {
	return len(q.tasks)
}
