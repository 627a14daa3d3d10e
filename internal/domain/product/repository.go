package product

import "context"

// SortOrder controls listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filter narrows and pages a product listing.
type Filter struct {
	Search   string
	Category string
	MinPrice int64
	MaxPrice int64
	SortBy   string
	Order    SortOrder
	Limit    int
	Skip     int
}

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, f Filter) ([]*Product, error)

	// DecrementStock atomically subtracts quantity from the available stock,
	// refusing any decrement that would drive it negative. Adapters must
	// implement this as a conditional update at the store level, not a
	// read-modify-write.
	DecrementStock(ctx context.Context, id string, quantity int) error
}
