package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dan9191/card-service/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrQueueFull is returned when a notification cannot be queued in time
	ErrQueueFull = errors.New("notification queue is full")
	// ErrStopped is returned once the delivery worker has been told to stop
	ErrStopped = errors.New("notification worker stopped")
)

// sendTimeout bounds how long a caller waits for a queue slot
const sendTimeout = 100 * time.Millisecond

// Async queues notifications and delivers them on a background worker,
// at most perSecond deliveries a second.
type Async struct {
	next    Notifier
	queue   chan func() error
	pace    *rate.Limiter
	log     *logrus.Logger
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewAsync wraps next with a queue of the given size. A perSecond of zero
// or less leaves deliveries unpaced.
func NewAsync(next Notifier, size, perSecond int, log *logrus.Logger) *Async {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Async{
		next:  next,
		queue: make(chan func() error, size),
		pace:  rate.NewLimiter(limit, 1),
		log:   log,
	}
}

// Start runs the delivery worker until ctx is done. New notifications are
// refused from then on and the ones already queued are delivered before the
// worker exits.
func (a *Async) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case job := <-a.queue:
				a.run(job)
			case <-ctx.Done():
				a.mu.Lock()
				a.stopped = true
				a.mu.Unlock()

				for {
					select {
					case job := <-a.queue:
						a.run(job)
					default:
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the worker has exited
func (a *Async) Wait() {
	a.wg.Wait()
}

func (a *Async) run(job func() error) {
	_ = a.pace.Wait(context.Background())
	if err := job(); err != nil {
		a.log.WithError(err).Warn("Notification delivery failed")
	}
}

func (a *Async) enqueue(job func() error) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.stopped {
		return ErrStopped
	}

	select {
	case a.queue <- job:
		return nil
	case <-time.After(sendTimeout):
		return ErrQueueFull
	}
}

func (a *Async) Welcome(user models.User) error {
	return a.enqueue(func() error { return a.next.Welcome(user) })
}

func (a *Async) CardAdded(user models.User, card models.Card) error {
	return a.enqueue(func() error { return a.next.CardAdded(user, card) })
}
