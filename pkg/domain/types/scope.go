package types

import "github.com/m-mizutani/goerr/v2"

// Scope is the entity class a field definition decorates
type Scope string

const (
	ScopeProduct  Scope = "product"
	ScopeCategory Scope = "category"
	ScopeSupplier Scope = "supplier"
	ScopeMovement Scope = "movement"
	ScopeAlert    Scope = "alert"
)

// AllScopes returns all valid scopes
func AllScopes() []Scope {
	return []Scope{
		ScopeProduct,
		ScopeCategory,
		ScopeSupplier,
		ScopeMovement,
		ScopeAlert,
	}
}

// IsValid checks if the scope is valid
func (s Scope) IsValid() bool {
	switch s {
	case ScopeProduct,
		ScopeCategory,
		ScopeSupplier,
		ScopeMovement,
		ScopeAlert:
		return true
	default:
		return false
	}
}

// String returns the string representation of the scope
func (s Scope) String() string {
	return string(s)
}

// ParseScope parses a string into a Scope
func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if !scope.IsValid() {
		return "", goerr.New("invalid applies-to scope", goerr.V("scope", s))
	}
	return scope, nil
}
