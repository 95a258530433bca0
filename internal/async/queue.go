package async

import (
	"context"
	"errors"
	"time"
)

// Job is one inbox file waiting to be turned into proposals.
type Job struct {
	Path        string
	OwnerID     string
	SubmittedAt time.Time
	TraceID     string
}

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor handles a single job. Implementations must be safe for
// concurrent use by the queue's workers.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc func(ctx context.Context, job Job) error

func (f ProcessorFunc) Process(ctx context.Context, job Job) error { return f(ctx, job) }
