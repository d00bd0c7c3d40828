package domain

import (
	"fmt"
	"strings"
)

// Scope is the aggregation granularity of a series or forecast.
type Scope string

const (
	ScopeTotal    Scope = "total"
	ScopeCategory Scope = "category"
	ScopeProduct  Scope = "product"
)

var scopeCodes = map[string]Scope{
	"total":    ScopeTotal,
	"category": ScopeCategory,
	"product":  ScopeProduct,
}

// ParseScope returns the scope for a given label (case-insensitive).
func ParseScope(label string) (Scope, bool) {
	scope, ok := scopeCodes[strings.ToLower(strings.TrimSpace(label))]

	return scope, ok
}

// RequiresID reports whether the scope must be qualified by a scope_id.
func (s Scope) RequiresID() bool {
	return s == ScopeCategory || s == ScopeProduct
}

// ValidateScope checks the scope/scope_id pair and normalises scopeID.
// The total scope always yields a nil scopeID.
func ValidateScope(scope Scope, scopeID *string) (*string, error) {
	if _, ok := scopeCodes[string(scope)]; !ok {
		return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidScope, scope)
	}
	if !scope.RequiresID() {
		return nil, nil
	}
	if scopeID == nil || strings.TrimSpace(*scopeID) == "" {
		return nil, fmt.Errorf("%w: scope_id is required for scope %s", ErrInvalidScope, scope)
	}
	id := strings.TrimSpace(*scopeID)
	return &id, nil
}
