package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
)

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	if err := r.db.SelectContext(ctx, &products, `SELECT id, name, category FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return products, nil
}

func (r *productRepository) IDsByCategory(ctx context.Context, category string) ([]string, error) {
	ids := make([]string, 0)
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM products WHERE category = $1 ORDER BY id`, category); err != nil {
		return nil, fmt.Errorf("error getting products for category %q: %w", category, err)
	}
	return ids, nil
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	query := `SELECT DISTINCT category FROM products WHERE category <> '' ORDER BY category`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}
