package catalog_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pyme/backend/internal/application/apptest"
	catalogapp "github.com/pyme/backend/internal/application/catalog"
	"github.com/pyme/backend/internal/domain/inventory"
	"github.com/pyme/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Parties(t *testing.T) {
	f := apptest.New(t)

	c, err := f.Catalog.CreateCustomer(f.Ctx, catalogapp.CreatePartyRequest{Code: "c-01", Name: "Almacen Norte", Email: "norte@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "C-01", c.Code)
	assert.True(t, c.CreatedAt.Equal(apptest.Start))

	got, err := f.Catalog.GetCustomer(f.Ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Almacen Norte", got.Name)
	assert.Equal(t, "norte@example.com", got.Email)

	_, err = f.Catalog.CreateCustomer(f.Ctx, catalogapp.CreatePartyRequest{Code: "C-01", Name: "Again"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	// customer and supplier codes live in separate namespaces
	s, err := f.Catalog.CreateSupplier(f.Ctx, catalogapp.CreatePartyRequest{Code: "C-01", Name: "Molino Sur"})
	require.NoError(t, err)
	_, err = f.Catalog.GetSupplier(f.Ctx, s.ID)
	require.NoError(t, err)

	_, err = f.Catalog.GetSupplier(f.Ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.Catalog.CreateSupplier(f.Ctx, catalogapp.CreatePartyRequest{Code: "S", Name: " "})
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInvalidName, de.Code)
}

func TestCatalog_StockItems(t *testing.T) {
	f := apptest.New(t)

	p, err := f.Catalog.CreateProduct(f.Ctx, catalogapp.CreateProductRequest{Code: "P1", Name: "Pan", SalePrice: apptest.D("1.20")})
	require.NoError(t, err)
	assert.Equal(t, inventory.StockKindProduct, p.Kind)
	require.NotNil(t, p.SalePrice)
	assert.True(t, p.SalePrice.Equal(apptest.D("1.2")))
	assert.True(t, p.Quantity.IsZero())
	assert.True(t, p.AverageCost.IsZero())

	rm, err := f.Catalog.CreateRawMaterial(f.Ctx, catalogapp.CreateRawMaterialRequest{Code: "P1", Name: "Harina", Unit: "kg"})
	require.NoError(t, err)
	assert.Equal(t, inventory.StockKindRawMaterial, rm.Kind)
	assert.Nil(t, rm.SalePrice)
	assert.Equal(t, "kg", rm.Unit)

	_, err = f.Catalog.CreateProduct(f.Ctx, catalogapp.CreateProductRequest{Code: "P1", Name: "Otro"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	got, err := f.Catalog.GetStockItem(f.Ctx, inventory.RawMaterialRef(rm.ID))
	require.NoError(t, err)
	assert.Equal(t, "Harina", got.Name)

	// the kind is part of the identity
	_, err = f.Catalog.GetStockItem(f.Ctx, inventory.ProductRef(rm.ID))
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.Catalog.GetStockItem(f.Ctx, inventory.StockItemRef{Kind: "SERVICE", ID: uuid.New()})
	assert.Error(t, err)
}
