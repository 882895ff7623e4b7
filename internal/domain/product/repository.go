package product

import "context"

// Catalog is the remote product collection.
type Catalog interface {
	List(ctx context.Context, page PageRequest) ([]*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, in CreateInput) (*Product, error)
}
