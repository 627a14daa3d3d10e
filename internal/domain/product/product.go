package product

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidID         = errors.New("product: invalid product id")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInvalidQuantity   = errors.New("product: quantity must be greater than zero")
	ErrValidation        = errors.New("product: invalid input")
)

const (
	// IDLength matches the 24-hex-character identifiers issued by the store.
	IDLength = 24

	nameMinLen        = 3
	nameMaxLen        = 200
	descriptionMinLen = 10
	descriptionMaxLen = 2000
	categoryMinLen    = 2
	categoryMaxLen    = 50
	quantityMax       = 100000
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Quantity    int       `json:"quantity"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidID reports whether id has the well-formed 24-hex shape.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func New(id, name, description, category, subcategory, imageURL string, price int64, quantity int) (*Product, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	if l := len(name); l < nameMinLen || l > nameMaxLen {
		return nil, fmt.Errorf("%w: name must be 3 to 200 characters", ErrValidation)
	}
	if l := len(description); l < descriptionMinLen || l > descriptionMaxLen {
		return nil, fmt.Errorf("%w: description must be 10 to 2000 characters", ErrValidation)
	}
	if l := len(category); l < categoryMinLen || l > categoryMaxLen {
		return nil, fmt.Errorf("%w: category must be 2 to 50 characters", ErrValidation)
	}
	if len(subcategory) > categoryMaxLen {
		return nil, fmt.Errorf("%w: subcategory cannot exceed 50 characters", ErrValidation)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if quantity < 0 || quantity > quantityMax {
		return nil, fmt.Errorf("%w: quantity must be between 0 and 100000", ErrValidation)
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Subcategory: subcategory,
		Quantity:    quantity,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
