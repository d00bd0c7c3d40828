package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

func parseScope(c *gin.Context) (domain.Scope, *string, error) {
	raw := c.Query("scope")
	scope, ok := domain.ParseScope(raw)
	if !ok {
		return "", nil, fmt.Errorf("%w: scope must be one of total, category, product (got %q)", domain.ErrInvalidScope, raw)
	}
	return scope, domain.StringPtr(strings.TrimSpace(c.Query("scope_id"))), nil
}

func parseDate(c *gin.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidFilter, name)
	}
	return t, nil
}

// parseInt reads an optional integer parameter. sentinel is wrapped on parse failure.
func parseInt(c *gin.Context, name string, def int, sentinel error) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", sentinel, name)
	}
	return v, nil
}
