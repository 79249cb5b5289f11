package partner

import (
	"context"
	"testing"
	"time"

	"github.com/erp/tradeledger/internal/domain/shared"
	"github.com/erp/tradeledger/internal/infrastructure/config"
	"github.com/erp/tradeledger/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T) (*SupplierService, *CustomerService) {
	t.Helper()
	database, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   ":memory:",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate())
	t.Cleanup(func() { _ = database.Close() })

	scope := persistence.NewGormTransactionScope(database.DB, persistence.WithTxTimeout(5*time.Second))
	return NewSupplierService(persistence.NewGormSupplierRepository(database.DB), scope),
		NewCustomerService(persistence.NewGormCustomerRepository(database.DB), scope)
}

func actorCtx() context.Context {
	return shared.WithActor(context.Background(), shared.Actor{UserID: uuid.New(), Role: shared.RoleCashier})
}

func TestSupplierService(t *testing.T) {
	t.Run("codes are generated in sequence", func(t *testing.T) {
		suppliers, _ := newTestServices(t)
		first, err := suppliers.Create(actorCtx(), CreateSupplierRequest{Name: "Acme", ReceivablesLimit: decimal.NewFromInt(5000)})
		require.NoError(t, err)
		second, err := suppliers.Create(actorCtx(), CreateSupplierRequest{Name: "Globex"})
		require.NoError(t, err)

		assert.Equal(t, "SUP00000001", first.Code)
		assert.Equal(t, "SUP00000002", second.Code)
		assert.True(t, first.Receivables.IsZero())
	})

	t.Run("opening receivables stay within the limit", func(t *testing.T) {
		suppliers, _ := newTestServices(t)
		s, err := suppliers.Create(actorCtx(), CreateSupplierRequest{
			Name:               "Acme",
			Phone:              "555-0100",
			ReceivablesLimit:   decimal.NewFromInt(5000),
			OpeningReceivables: decimal.NewFromInt(1200),
		})
		require.NoError(t, err)
		assert.True(t, s.Receivables.Equal(decimal.NewFromInt(1200)))
		assert.Equal(t, "555-0100", s.Phone)

		_, err = suppliers.Create(actorCtx(), CreateSupplierRequest{
			Name:               "Initech",
			ReceivablesLimit:   decimal.NewFromInt(100),
			OpeningReceivables: decimal.NewFromInt(101),
		})
		assert.ErrorIs(t, err, shared.ErrReceivablesLimit)
	})

	t.Run("get and list", func(t *testing.T) {
		suppliers, _ := newTestServices(t)
		acme, err := suppliers.Create(actorCtx(), CreateSupplierRequest{Name: "Acme"})
		require.NoError(t, err)
		_, err = suppliers.Create(actorCtx(), CreateSupplierRequest{Name: "Globex"})
		require.NoError(t, err)

		got, err := suppliers.GetByID(context.Background(), acme.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.Name)

		_, err = suppliers.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		items, total, err := suppliers.List(context.Background(), PartnerListFilter{Search: "glo"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Globex", items[0].Name)
	})

	t.Run("requires an actor", func(t *testing.T) {
		suppliers, _ := newTestServices(t)
		_, err := suppliers.Create(context.Background(), CreateSupplierRequest{Name: "Acme"})
		assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	})
}

func TestCustomerService(t *testing.T) {
	_, customers := newTestServices(t)

	c, err := customers.Create(actorCtx(), CreateCustomerRequest{Name: "Walk-in", Address: "Main St 1"})
	require.NoError(t, err)
	assert.Equal(t, "CUS00000001", c.Code)
	assert.Equal(t, "Main St 1", c.Address)

	_, err = customers.Create(actorCtx(), CreateCustomerRequest{Name: "  "})
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	items, total, err := customers.List(context.Background(), PartnerListFilter{OrderBy: "code", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, c.ID, items[0].ID)
}
