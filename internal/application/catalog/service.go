// Package catalog manages the product read/write surface: creation with
// validation, lookup, and filtered listings.
package catalog

import (
	"context"

	"go.uber.org/zap"

	domain "github.com/shopnest/backend/internal/domain/product"
	"github.com/shopnest/backend/internal/pkg/logging"
)

type IDGenerator interface {
	NewProductID() string
}

type Service struct {
	products domain.Repository
	ids      IDGenerator
}

func NewService(products domain.Repository, ids IDGenerator) *Service {
	return &Service{products: products, ids: ids}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Category    string
	Subcategory string
	Quantity    int
	ImageURL    string
}

func (s *Service) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	p, err := domain.New(
		s.ids.NewProductID(),
		input.Name, input.Description, input.Category, input.Subcategory, input.ImageURL,
		input.Price, input.Quantity,
	)
	if err != nil {
		return nil, err
	}

	if err := s.products.Insert(ctx, p); err != nil {
		logging.FromContext(ctx).Error("product_insert_failed", zap.String("product_id", p.ID), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrInvalidID
	}
	return s.products.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	return s.products.List(ctx, f)
}
