package series

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testCatalog() []domain.Product {
	return []domain.Product{
		{ID: "P1", Name: "Smartphone", Category: "Electronics"},
		{ID: "P2", Name: "Notebook", Category: "Electronics"},
		{ID: "P3", Name: "T-Shirt", Category: "Clothing"},
	}
}

func testRecords() []domain.SaleRecord {
	return []domain.SaleRecord{
		{ProductID: "P1", Date: day("2024-01-02"), Quantity: 4, Revenue: 40},
		{ProductID: "P3", Date: day("2024-01-01"), Quantity: 7, Revenue: 70},
		{ProductID: "P2", Date: day("2024-01-01"), Quantity: 3, Revenue: 300},
		{ProductID: "P1", Date: day("2024-01-01").Add(15 * time.Hour), Quantity: 2, Revenue: 20},
		{ProductID: "P9", Date: day("2024-01-03"), Quantity: 5, Revenue: 50},
	}
}

func sumMatching(records []domain.SaleRecord, keep func(string) bool) int {
	total := 0
	for _, r := range records {
		if keep(r.ProductID) {
			total += r.Quantity
		}
	}
	return total
}

func TestBuildSeries_Total(t *testing.T) {
	s, err := BuildSeries(testRecords(), testCatalog(), domain.ScopeTotal, nil)
	require.NoError(t, err)

	assert.Nil(t, s.ScopeID)
	require.Len(t, s.Points, 3)
	assert.Equal(t, day("2024-01-01"), s.Points[0].Date)
	assert.Equal(t, 12, s.Points[0].Quantity)
	assert.Equal(t, 4, s.Points[1].Quantity)
	assert.Equal(t, 5, s.Points[2].Quantity)
	assert.Equal(t, 21, s.TotalQuantity())
}

func TestBuildSeries_TotalIgnoresScopeID(t *testing.T) {
	s, err := BuildSeries(testRecords(), testCatalog(), domain.ScopeTotal, domain.StringPtr("anything"))
	require.NoError(t, err)
	assert.Nil(t, s.ScopeID)
}

func TestBuildSeries_Category(t *testing.T) {
	s, err := BuildSeries(testRecords(), testCatalog(), domain.ScopeCategory, domain.StringPtr("Electronics"))
	require.NoError(t, err)

	require.Len(t, s.Points, 2)
	assert.Equal(t, 5, s.Points[0].Quantity)
	assert.Equal(t, 4, s.Points[1].Quantity)
	assert.Equal(t, "Electronics", domain.StringValue(s.ScopeID))
}

func TestBuildSeries_CategoryWithoutProductsIsEmpty(t *testing.T) {
	s, err := BuildSeries(testRecords(), testCatalog(), domain.ScopeCategory, domain.StringPtr("Furniture"))
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.NotNil(t, s.Points)
}

func TestBuildSeries_Product(t *testing.T) {
	s, err := BuildSeries(testRecords(), testCatalog(), domain.ScopeProduct, domain.StringPtr("P1"))
	require.NoError(t, err)

	require.Len(t, s.Points, 2)
	assert.Equal(t, day("2024-01-01"), s.Points[0].Date)
	assert.Equal(t, 2, s.Points[0].Quantity)
	assert.Equal(t, day("2024-01-02"), s.Points[1].Date)
}

func TestBuildSeries_RequiresScopeID(t *testing.T) {
	for _, scope := range []domain.Scope{domain.ScopeCategory, domain.ScopeProduct} {
		_, err := BuildSeries(testRecords(), testCatalog(), scope, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidScope, scope)

		_, err = BuildSeries(testRecords(), testCatalog(), scope, domain.StringPtr("  "))
		assert.ErrorIs(t, err, domain.ErrInvalidScope, scope)
	}
}

func TestBuildSeries_UnknownScope(t *testing.T) {
	_, err := BuildSeries(testRecords(), testCatalog(), domain.Scope("store"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidScope)
}

func TestBuildSeries_EmptyInput(t *testing.T) {
	s, err := BuildSeries(nil, nil, domain.ScopeTotal, nil)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}

// Shuffled input must always produce the same strictly increasing series whose
// quantity sum equals the sum of matching records.
func TestBuildSeries_OrderedAndSumPreserved(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	products := testCatalog()

	var records []domain.SaleRecord
	start := day("2023-06-01")
	for i := 0; i < 500; i++ {
		records = append(records, domain.SaleRecord{
			ProductID: products[rng.Intn(len(products))].ID,
			Date:      start.AddDate(0, 0, rng.Intn(60)).Add(time.Duration(rng.Intn(24)) * time.Hour),
			Quantity:  rng.Intn(20),
		})
	}

	members := CategoryMembers(products, "Electronics")
	cases := []struct {
		scope   domain.Scope
		scopeID *string
		keep    func(string) bool
	}{
		{domain.ScopeTotal, nil, func(string) bool { return true }},
		{domain.ScopeCategory, domain.StringPtr("Electronics"), func(id string) bool { _, ok := members[id]; return ok }},
		{domain.ScopeProduct, domain.StringPtr("P3"), func(id string) bool { return id == "P3" }},
	}

	for _, tc := range cases {
		for round := 0; round < 5; round++ {
			rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })

			s, err := BuildSeries(records, products, tc.scope, tc.scopeID)
			require.NoError(t, err)

			assert.Equal(t, sumMatching(records, tc.keep), s.TotalQuantity())
			for i := 1; i < len(s.Points); i++ {
				assert.True(t, s.Points[i-1].Date.Before(s.Points[i].Date), "dates must strictly increase")
			}
		}
	}
}

func TestAggregate_DailyTotal(t *testing.T) {
	rows, err := Aggregate(testRecords(), testCatalog(), domain.ScopeTotal, domain.PeriodDaily)
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01-01", rows[0].Date)
	assert.Equal(t, 12, rows[0].TotalQuantity)
	assert.Empty(t, rows[0].Month)
}

func TestAggregate_MonthlyByCategory(t *testing.T) {
	records := append(testRecords(), domain.SaleRecord{ProductID: "P3", Date: day("2024-02-10"), Quantity: 1})

	rows, err := Aggregate(records, testCatalog(), domain.ScopeCategory, domain.PeriodMonthly)
	require.NoError(t, err)

	// P9 is not in the catalog and is dropped.
	require.Len(t, rows, 3)
	assert.Equal(t, domain.AggregateRow{Bucket: "2024-01", Month: "2024-01", Category: "Clothing", TotalQuantity: 7}, rows[0])
	assert.Equal(t, domain.AggregateRow{Bucket: "2024-01", Month: "2024-01", Category: "Electronics", TotalQuantity: 9}, rows[1])
	assert.Equal(t, "2024-02", rows[2].Month)
}

func TestAggregate_DailyByProduct(t *testing.T) {
	rows, err := Aggregate(testRecords(), testCatalog(), domain.ScopeProduct, domain.PeriodDaily)
	require.NoError(t, err)

	require.Len(t, rows, 5)
	assert.Equal(t, "P1", rows[0].ProductID)
	assert.Equal(t, 2, rows[0].TotalQuantity)
	assert.Equal(t, "P9", rows[4].ProductID)
}

func TestAggregate_RejectsUnknownInputs(t *testing.T) {
	_, err := Aggregate(nil, nil, domain.Scope("store"), domain.PeriodDaily)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	_, err = Aggregate(nil, nil, domain.ScopeTotal, domain.AggregatePeriod("weekly"))
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}
