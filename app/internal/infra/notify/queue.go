package notify

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	domnotification "example.com/rocketshoes/app/internal/domain/notification"
)

// DefaultCapacity bounds a shopper's undelivered toasts.
const DefaultCapacity = 32

// Queue keeps the toasts of one shopper until the storefront drains them.
// When full, the oldest toast is dropped.
type Queue struct {
	mu       sync.Mutex
	pending  []domnotification.Notification
	capacity int
	log      *logrus.Entry
}

func NewQueue(capacity int, log *logrus.Entry) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity, log: log}
}

func (q *Queue) Notify(ctx context.Context, n domnotification.Notification) {
	q.log.WithFields(logrus.Fields{"kind": n.Kind, "message": n.Message}).Debug("toast")

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == q.capacity {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, n)
}

// Drain returns the pending toasts in emission order and clears the queue.
func (q *Queue) Drain() []domnotification.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	if out == nil {
		return []domnotification.Notification{}
	}
	return out
}
