// Package storage describes the key/value persistence a shopper's cart is
// written to, the server-side counterpart of browser local storage.
package storage

import "context"

type Storage interface {
	// GetItem reports found=false when the key holds no value.
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

type prefixed struct {
	next   Storage
	prefix string
}

// WithPrefix scopes every key of next under namespace, so one backend can
// hold the storage of many shoppers.
func WithPrefix(next Storage, namespace string) Storage {
	return &prefixed{next: next, prefix: namespace + "/"}
}

func (p *prefixed) GetItem(ctx context.Context, key string) (string, bool, error) {
	return p.next.GetItem(ctx, p.prefix+key)
}

func (p *prefixed) SetItem(ctx context.Context, key, value string) error {
	return p.next.SetItem(ctx, p.prefix+key, value)
}

func (p *prefixed) RemoveItem(ctx context.Context, key string) error {
	return p.next.RemoveItem(ctx, p.prefix+key)
}
