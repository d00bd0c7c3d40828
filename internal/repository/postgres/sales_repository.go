package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
)

type salesRepository struct {
	db *sqlx.DB
}

func NewSalesRepository(db *sqlx.DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) History(ctx context.Context, filter domain.SalesFilter) ([]domain.SaleRecord, error) {
	query := `
		SELECT id, product_id, date, quantity, revenue
		FROM sales
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.ProductID != "" {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argCounter))
		args = append(args, filter.ProductID)
		argCounter++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("product_id IN (SELECT id FROM products WHERE category = $%d)", argCounter))
		args = append(args, filter.Category)
		argCounter++
	}

	if !filter.StartDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argCounter))
		args = append(args, filter.StartDate.Format(domain.DateLayout))
		argCounter++
	}

	if !filter.EndDate.IsZero() {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argCounter))
		args = append(args, filter.EndDate.Format(domain.DateLayout))
		argCounter++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	records := make([]domain.SaleRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("error getting sales history: %w", err)
	}

	for i := range records {
		records[i].Date = domain.TruncateDay(records[i].Date)
	}
	return records, nil
}
