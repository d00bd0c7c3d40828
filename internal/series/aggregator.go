// Package series turns raw sale records into ordered daily time series.
package series

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

// BuildSeries groups the records matching scope by calendar day and sums
// quantity. The result is ascending by date with one point per distinct day.
//
// For the category scope, membership is resolved through products at call
// time; a category with no products yields an empty series.
func BuildSeries(records []domain.SaleRecord, products []domain.Product, scope domain.Scope, scopeID *string) (domain.HistoricalSeries, error) {
	id, err := domain.ValidateScope(scope, scopeID)
	if err != nil {
		return domain.HistoricalSeries{}, err
	}

	out := domain.HistoricalSeries{Scope: scope, ScopeID: id, Points: []domain.SeriesPoint{}}

	match, ok := matcher(products, scope, domain.StringValue(id))
	if !ok {
		return out, nil
	}

	byDay := make(map[time.Time]int)
	for _, r := range records {
		if !match(r.ProductID) {
			continue
		}
		byDay[domain.TruncateDay(r.Date)] += r.Quantity
	}

	out.Points = make([]domain.SeriesPoint, 0, len(byDay))
	for day, qty := range byDay {
		out.Points = append(out.Points, domain.SeriesPoint{Date: day, Quantity: qty})
	}
	sort.Slice(out.Points, func(i, j int) bool {
		return out.Points[i].Date.Before(out.Points[j].Date)
	})

	return out, nil
}

// matcher returns a product filter for the scope. ok is false when the scope
// can never match anything (an empty category).
func matcher(products []domain.Product, scope domain.Scope, id string) (func(string) bool, bool) {
	switch scope {
	case domain.ScopeCategory:
		members := CategoryMembers(products, id)
		if len(members) == 0 {
			return nil, false
		}
		return func(productID string) bool {
			_, ok := members[productID]
			return ok
		}, true
	case domain.ScopeProduct:
		return func(productID string) bool { return productID == id }, true
	default:
		return func(string) bool { return true }, true
	}
}

// CategoryMembers resolves a category name to the set of its product IDs.
func CategoryMembers(products []domain.Product, category string) map[string]struct{} {
	members := make(map[string]struct{})
	for _, p := range products {
		if p.Category == category {
			members[p.ID] = struct{}{}
		}
	}
	return members
}

// Aggregate buckets records by day or month and, unless groupBy is total,
// by category or product. Rows are sorted by bucket, then key.
//
// Records whose product is missing from the catalog are dropped when grouping
// by category, matching an inner join against products.
func Aggregate(records []domain.SaleRecord, products []domain.Product, groupBy domain.Scope, period domain.AggregatePeriod) ([]domain.AggregateRow, error) {
	if _, ok := domain.ParseScope(string(groupBy)); !ok {
		return nil, fmt.Errorf("%w: unknown group_by %q", domain.ErrInvalidFilter, groupBy)
	}

	var layout string
	switch period {
	case domain.PeriodDaily:
		layout = domain.DateLayout
	case domain.PeriodMonthly:
		layout = "2006-01"
	default:
		return nil, fmt.Errorf("%w: unknown period %q", domain.ErrInvalidFilter, period)
	}

	categoryOf := make(map[string]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
	}

	type key struct {
		bucket string
		group  string
	}
	sums := make(map[key]int)
	for _, r := range records {
		k := key{bucket: r.Date.UTC().Format(layout)}
		switch groupBy {
		case domain.ScopeCategory:
			category, ok := categoryOf[r.ProductID]
			if !ok {
				continue
			}
			k.group = category
		case domain.ScopeProduct:
			k.group = r.ProductID
		}
		sums[k] += r.Quantity
	}

	rows := make([]domain.AggregateRow, 0, len(sums))
	for k, qty := range sums {
		row := domain.AggregateRow{Bucket: k.bucket, TotalQuantity: qty}
		if period == domain.PeriodDaily {
			row.Date = k.bucket
		} else {
			row.Month = k.bucket
		}
		switch groupBy {
		case domain.ScopeCategory:
			row.Category = k.group
		case domain.ScopeProduct:
			row.ProductID = k.group
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Bucket != rows[j].Bucket {
			return rows[i].Bucket < rows[j].Bucket
		}
		return strings.Compare(rows[i].Category+rows[i].ProductID, rows[j].Category+rows[j].ProductID) < 0
	})

	return rows, nil
}
