//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/uow"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/undo"
	"github.com/pyme/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_RepositoriesAgainstMigratedSchema(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewPostgresDB(t)

	t.Run("invoice round trip", func(t *testing.T) {
		repo := NewGormInvoiceRepository(db)
		customerID := uuid.New()
		first := saveInvoice(t, repo, customerID, day, "20")
		saveInvoice(t, repo, customerID, day.AddDate(0, 0, 1), "30")

		got, err := repo.FindByID(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assertDecimal(t, "20", got.Total)

		open, err := repo.FindOpenByCustomerForUpdate(ctx, customerID)
		require.NoError(t, err)
		require.Len(t, open, 2)
		assert.Equal(t, first.ID, open[0].ID)
	})

	t.Run("duplicate invoice number is rejected", func(t *testing.T) {
		repo := NewGormInvoiceRepository(db)
		inv := saveInvoice(t, repo, uuid.New(), day, "10")

		dup := saveInvoice(t, repo, uuid.New(), day, "10")
		dup.Number = inv.Number
		assert.Error(t, repo.Save(ctx, dup))
	})

	t.Run("later purchase detection", func(t *testing.T) {
		repo := NewGormPurchaseRepository(db)
		item := inventory.RawMaterialRef(uuid.New())
		first := savePurchase(t, repo, item, day, day)
		savePurchase(t, repo, item, day.AddDate(0, 0, 1), day)

		later, err := repo.HasLaterPurchaseOf(ctx, item, first)
		require.NoError(t, err)
		assert.True(t, later)
	})

	t.Run("undo payload survives jsonb", func(t *testing.T) {
		repo := NewGormUndoActionRepository(db)
		userID := uuid.New()
		now := time.Now().UTC()
		a := newUndoAction(t, userID, now)
		require.NoError(t, repo.Save(ctx, a))

		got, err := repo.FindLatestPending(ctx, userID, now.Add(-undo.DefaultWindow))
		require.NoError(t, err)
		p, err := got.Decode()
		require.NoError(t, err)
		assert.Equal(t, undo.KindCreateSale, p.Kind())
	})

	t.Run("transaction scope rolls back", func(t *testing.T) {
		scope := NewGormTransactionScope(db)
		product, err := inventory.NewProduct("PG-"+uuid.NewString()[:8], "Queso", dec("1"), day)
		require.NoError(t, err)

		err = scope.Execute(ctx, func(repos uow.Repositories) error {
			if err := repos.StockItems().Save(ctx, product); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		_, err = NewGormStockItemRepository(db).FindByRef(ctx, product.Ref())
		assert.Error(t, err)
	})
}
