package workers

import (
	"context"
	"sync"
	"time"

	"alumnihub_backend/internal/logger"
)

// ReceiptGenerator issues a receipt for one donation.
type ReceiptGenerator interface {
	Generate(ctx context.Context, donationID string) error
}

// ReceiptWorker drains a bounded queue of donation ids and generates
// receipts off the webhook path. Scheduling never blocks: when the queue is
// full the job is dropped with a log line, and the admin re-trigger
// endpoint recovers any donation that ends up without a receipt.
type ReceiptWorker struct {
	generator ReceiptGenerator
	queue     chan string
	wg        sync.WaitGroup

	maxAttempts int
	retryDelay  time.Duration
}

func NewReceiptWorker(generator ReceiptGenerator, queueSize int) *ReceiptWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &ReceiptWorker{
		generator:   generator,
		queue:       make(chan string, queueSize),
		maxAttempts: 3,
		retryDelay:  2 * time.Second,
	}
}

// Start launches the drain loop. It stops when ctx is cancelled; Wait
// blocks until in-flight work finishes.
func (w *ReceiptWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case donationID := <-w.queue:
				w.process(ctx, donationID)
			}
		}
	}()
}

func (w *ReceiptWorker) Wait() {
	w.wg.Wait()
}

// Schedule enqueues a donation for receipt generation without blocking the
// caller.
func (w *ReceiptWorker) Schedule(donationID string) {
	select {
	case w.queue <- donationID:
	default:
		logger.Warn("receipt queue full, dropping job", "donation_id", donationID)
	}
}

func (w *ReceiptWorker) process(ctx context.Context, donationID string) {
	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err = w.generator.Generate(ctx, donationID); err == nil {
			return
		}
		logger.CtxWithError(ctx, "receipt generation attempt failed", err,
			"donation_id", donationID, "attempt", attempt)
		if attempt == w.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryDelay * time.Duration(attempt)):
		}
	}
	logger.CtxError(ctx, "receipt generation exhausted retries", "donation_id", donationID, "error", err)
}
