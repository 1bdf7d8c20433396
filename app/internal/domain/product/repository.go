package product

import "context"

// Catalog is the remote source of product details and stock levels.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	GetStock(ctx context.Context, id int64) (*Stock, error)
}
