// Package testutil holds helpers shared by the ledger's integration tests.
package testutil

import (
	"context"
	"testing"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// ActorContext returns a background context carrying a fresh actor of role
func ActorContext(role shared.Role) context.Context {
	return shared.WithActor(context.Background(), shared.Actor{UserID: uuid.New(), Role: role})
}

// AdminContext returns a context acting as an Admin
func AdminContext() context.Context {
	return ActorContext(shared.RoleAdmin)
}

// CashierContext returns a context acting as a Cashier
func CashierContext() context.Context {
	return ActorContext(shared.RoleCashier)
}

// Dec parses a decimal literal and panics on malformed input
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// AssertDecimal compares decimals by value, so "10" equals "10.0000"
func AssertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) bool {
	t.Helper()
	return assert.True(t, Dec(want).Equal(got),
		append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}
