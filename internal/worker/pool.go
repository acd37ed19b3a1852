package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/repository"
)

// Pool manages the lifecycle of all delivery workers. The workers share no
// in-memory state; the queue's row locks keep them from colliding, so the
// pool only exists to start and drain them together.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates count identical delivery workers.
func NewPool(
	count int,
	deliveries repository.DeliveryRepository,
	m mailer.Mailer,
	pollInterval, errorBackoff time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	workers := make([]*Worker, count)
	for i := range workers {
		workers[i] = NewWorker(
			i, deliveries, m,
			pollInterval, errorBackoff,
			logger.With(zap.Int("worker_id", i)),
			hooks,
		)
	}
	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// Cancelling ctx triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context so in-flight sends finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
