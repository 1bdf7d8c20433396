package notification

import (
	"context"
	"sync"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a user-facing toast.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func Success(msg string) Notification {
	return Notification{Kind: KindSuccess, Message: msg}
}

func Error(msg string) Notification {
	return Notification{Kind: KindError, Message: msg}
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

type collectorKey struct{}

// Collector gathers the toasts raised while serving a single request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

func (c *Collector) Notify(ctx context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

// Notifications returns the collected toasts in emission order.
func (c *Collector) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// WithCollector returns a context whose toasts are routed to the returned
// collector instead of the shopper's inbox.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

func CollectorFrom(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*Collector)
	return c, ok
}
