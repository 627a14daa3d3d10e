package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	domain "github.com/shopnest/backend/internal/domain/product"
)

type ProductRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items: make(map[string]*domain.Product),
	}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

// DecrementStock checks and subtracts under one lock so the quantity can
// never go negative, mirroring the conditional update a SQL adapter issues.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Quantity < quantity {
		return domain.ErrInsufficientStock
	}

	updated := p.Clone()
	updated.Quantity -= quantity
	r.items[id] = updated
	return nil
}

func (r *ProductRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Product
	for _, p := range r.items {
		if !matches(p, f) {
			continue
		}
		out = append(out, p.Clone())
	}

	sortProducts(out, f)

	if f.Skip >= len(out) {
		return nil, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(p *domain.Product, f domain.Filter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice > 0 && p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	return true
}

func sortProducts(products []*domain.Product, f domain.Filter) {
	desc := f.Order != domain.SortAsc
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		var less bool
		switch f.SortBy {
		case "price":
			less = a.Price < b.Price
		case "name":
			less = a.Name < b.Name
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})
}
