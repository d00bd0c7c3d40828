package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) repository.ForecastRepository {
	return &forecastRepository{db: db}
}

type forecastRow struct {
	ID             int64          `db:"id"`
	Scope          string         `db:"scope"`
	ScopeID        sql.NullString `db:"scope_id"`
	Date           time.Time      `db:"date"`
	PredictedValue float64        `db:"predicted_value"`
	LowerBound     float64        `db:"lower_bound"`
	UpperBound     float64        `db:"upper_bound"`
	ModelMetadata  []byte         `db:"model_metadata"`
	CreatedAt      time.Time      `db:"created_at"`
}

const insertForecastQuery = `
	INSERT INTO forecasts (scope, scope_id, date, predicted_value, lower_bound, upper_bound, model_metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Save inserts every point in one transaction. Existing rows for the same
// scope and date are left untouched.
func (r *forecastRepository) Save(ctx context.Context, points []domain.ForecastPoint) error {
	if len(points) == 0 {
		return nil
	}

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, insertForecastQuery)
		if err != nil {
			return fmt.Errorf("prepare forecast insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			meta, err := p.ModelMetadata.JSON()
			if err != nil {
				return fmt.Errorf("encode model metadata: %w", err)
			}
			if _, err := stmt.ExecContext(ctx,
				string(p.Scope),
				p.ScopeID,
				p.Date.Format(domain.DateLayout),
				p.PredictedValue,
				p.LowerBound,
				p.UpperBound,
				string(meta),
			); err != nil {
				return fmt.Errorf("insert forecast %s: %w", p.Date.Format(domain.DateLayout), err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
	}
	return nil
}

func (r *forecastRepository) Latest(ctx context.Context, scope domain.Scope, scopeID *string, limit int) ([]domain.ForecastPoint, error) {
	if limit <= 0 {
		return []domain.ForecastPoint{}, nil
	}

	query := `
		SELECT id, scope, scope_id, date, predicted_value, lower_bound, upper_bound, model_metadata, created_at
		FROM forecasts
		WHERE scope = $1 AND scope_id IS NOT DISTINCT FROM $2
		ORDER BY date DESC, id DESC
		LIMIT $3
	`

	var rows []forecastRow
	if err := r.db.SelectContext(ctx, &rows, query, string(scope), scopeID, limit); err != nil {
		return nil, fmt.Errorf("error getting latest forecasts: %w", err)
	}

	points := make([]domain.ForecastPoint, 0, len(rows))
	for _, row := range rows {
		var meta domain.ModelMetadata
		if len(row.ModelMetadata) > 0 {
			if err := json.Unmarshal(row.ModelMetadata, &meta); err != nil {
				return nil, fmt.Errorf("decode model metadata for forecast %d: %w", row.ID, err)
			}
		}

		var id *string
		if row.ScopeID.Valid {
			id = domain.StringPtr(row.ScopeID.String)
		}

		points = append(points, domain.ForecastPoint{
			ID:             row.ID,
			Scope:          domain.Scope(row.Scope),
			ScopeID:        id,
			Date:           domain.TruncateDay(row.Date),
			PredictedValue: row.PredictedValue,
			LowerBound:     row.LowerBound,
			UpperBound:     row.UpperBound,
			ModelMetadata:  meta,
			CreatedAt:      row.CreatedAt,
		})
	}
	return points, nil
}
