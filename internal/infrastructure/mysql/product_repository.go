package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domain "github.com/shopnest/backend/internal/domain/product"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products
			(id, name, description, price, category, subcategory, quantity, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Subcategory,
		p.Quantity, p.ImageURL, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, category, subcategory, quantity, image_url, created_at, updated_at
		FROM products WHERE id = ?`, id,
	).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Subcategory,
		&p.Quantity, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// DecrementStock subtracts stock only when enough remains; the quantity
// column can never go negative regardless of concurrent confirmations.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET quantity = quantity - ?, updated_at = NOW()
		WHERE id = ? AND quantity >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrInsufficientStock
}

var sortColumns = map[string]string{
	"price":     "price",
	"name":      "name",
	"createdAt": "created_at",
}

func (r *ProductRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		where = append(where, "(name LIKE ? OR description LIKE ?)")
		needle := "%" + f.Search + "%"
		args = append(args, needle, needle)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, f.MaxPrice)
	}

	query := `SELECT id, name, description, price, category, subcategory, quantity, image_url, created_at, updated_at FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if f.Order == domain.SortAsc {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", column, direction)

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Subcategory,
			&p.Quantity, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
