package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

const maxReportedErrors = 20

// RowError describes a rejected CSV line. Line is 1-based and counts the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Report summarises one CSV parse.
type Report struct {
	Rows    int        `json:"rows"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

func (r *Report) reject(line int, reason string) {
	r.Skipped++
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, RowError{Line: line, Reason: reason})
	}
}

// SaleRow is a ledger row plus the optional category column carried by the
// sales export.
type SaleRow struct {
	domain.SaleRecord
	Category string
}

type columns map[string]int

func readHeader(reader *csv.Reader, required ...string) (columns, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := make(columns, len(header))
	for i, col := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("CSV header is missing column %q", name)
		}
	}
	return cols, nil
}

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// ReadProducts parses id,name,category rows. Later duplicates of an id win.
func ReadProducts(r io.Reader) ([]domain.Product, Report, error) {
	var report Report
	reader := newReader(r)
	cols, err := readHeader(reader, "id", "category")
	if err != nil {
		return nil, report, err
	}

	index := make(map[string]int)
	var products []domain.Product
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, report, fmt.Errorf("error reading record at line %d: %w", line, err)
		}
		report.Rows++

		p := domain.Product{
			ID:       cols.get(record, "id"),
			Name:     cols.get(record, "name"),
			Category: cols.get(record, "category"),
		}
		if p.ID == "" {
			report.reject(line, "empty id")
			continue
		}
		if p.Name == "" {
			p.Name = p.ID
		}

		if i, ok := index[p.ID]; ok {
			products[i] = p
			continue
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	return products, report, nil
}

// ReadSales parses product_id,date,quantity,revenue[,category] rows.
func ReadSales(r io.Reader) ([]SaleRow, Report, error) {
	var report Report
	reader := newReader(r)
	cols, err := readHeader(reader, "product_id", "date", "quantity")
	if err != nil {
		return nil, report, err
	}

	var rows []SaleRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, report, fmt.Errorf("error reading record at line %d: %w", line, err)
		}
		report.Rows++

		row, reason := parseSale(cols, record)
		if reason != "" {
			report.reject(line, reason)
			continue
		}
		rows = append(rows, row)
	}
	return rows, report, nil
}

func parseSale(cols columns, record []string) (SaleRow, string) {
	productID := cols.get(record, "product_id")
	if productID == "" {
		return SaleRow{}, "empty product_id"
	}

	date, err := parseDate(cols.get(record, "date"))
	if err != nil {
		return SaleRow{}, err.Error()
	}

	quantity, err := strconv.Atoi(cols.get(record, "quantity"))
	if err != nil || quantity < 0 {
		return SaleRow{}, fmt.Sprintf("invalid quantity %q", cols.get(record, "quantity"))
	}

	revenue := 0.0
	if raw := cols.get(record, "revenue"); raw != "" {
		revenue, err = strconv.ParseFloat(raw, 64)
		if err != nil || revenue < 0 {
			return SaleRow{}, fmt.Sprintf("invalid revenue %q", raw)
		}
	}

	return SaleRow{
		SaleRecord: domain.SaleRecord{
			ProductID: productID,
			Date:      date,
			Quantity:  quantity,
			Revenue:   revenue,
		},
		Category: cols.get(record, "category"),
	}, ""
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{domain.DateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return domain.TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
