package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

type SalesService interface {
	History(ctx context.Context, filter domain.SalesFilter) ([]domain.SaleRecord, error)
	Aggregate(ctx context.Context, filter domain.SalesFilter, groupBy domain.Scope, period domain.AggregatePeriod) ([]domain.AggregateRow, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

// HolidayLister returns the holidays of one civil year.
type HolidayLister interface {
	Year(ctx context.Context, year int) ([]domain.Holiday, error)
}

type SalesHandler struct {
	sales    SalesService
	holidays HolidayLister
}

func NewSalesHandler(sales SalesService, holidays HolidayLister) *SalesHandler {
	return &SalesHandler{sales: sales, holidays: holidays}
}

type saleResponse struct {
	ID        int64   `json:"id"`
	ProductID string  `json:"product_id"`
	Date      string  `json:"date"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

func (h *SalesHandler) parseFilter(c *gin.Context) (domain.SalesFilter, error) {
	var filter domain.SalesFilter
	var err error

	if filter.StartDate, err = parseDate(c, "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDate(c, "end_date"); err != nil {
		return filter, err
	}
	filter.ProductID = strings.TrimSpace(c.Query("product_id"))
	filter.Category = strings.TrimSpace(c.Query("category"))
	return filter, nil
}

// History handles GET /sales/history
func (h *SalesHandler) History(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.sales.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]saleResponse, 0, len(records))
	for _, r := range records {
		out = append(out, saleResponse{
			ID:        r.ID,
			ProductID: r.ProductID,
			Date:      r.Date.Format(domain.DateLayout),
			Quantity:  r.Quantity,
			Revenue:   r.Revenue,
		})
	}

	c.JSON(http.StatusOK, out)
}

// Aggregate handles GET /sales/aggregate?group_by=total|category|product&period=daily|monthly
func (h *SalesHandler) Aggregate(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	groupBy := domain.Scope(strings.ToLower(c.DefaultQuery("group_by", string(domain.ScopeTotal))))
	period := domain.AggregatePeriod(strings.ToLower(c.DefaultQuery("period", string(domain.PeriodDaily))))

	rows, err := h.sales.Aggregate(c.Request.Context(), filter, groupBy, period)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// Products handles GET /products
func (h *SalesHandler) Products(c *gin.Context) {
	products, err := h.sales.Products(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

type holidayResponse struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Holidays handles GET /holidays?year=
func (h *SalesHandler) Holidays(c *gin.Context) {
	year, err := parseInt(c, "year", time.Now().Year(), domain.ErrInvalidFilter)
	if err != nil {
		respondError(c, err)
		return
	}
	if year < 1900 || year > 2199 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year out of range"})
		return
	}

	holidays, err := h.holidays.Year(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]holidayResponse, 0, len(holidays))
	for _, hol := range holidays {
		out = append(out, holidayResponse{Date: hol.Date.Format(domain.DateLayout), Name: hol.Name, Type: hol.Type})
	}
	c.JSON(http.StatusOK, out)
}
