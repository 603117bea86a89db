package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/example/shopfront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func uintPtr(u uint) *uint { return &u }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCatalogProducts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fx := newFixtures(t, store)
	catalog := NewCatalogService(store, zap.NewNop())

	tools := fx.category("Tools")
	toys := fx.category("Toys")
	fx.product(tools.ID, "Hammer", "9.99", 10, 3)
	fx.product(tools.ID, "Wrench", "14.50", 4, 12)
	fx.product(toys.ID, "Yo-yo", "2.00", 50, 7)

	t.Run("create requires fields and an existing category", func(t *testing.T) {
		_, err := catalog.CreateProduct(ctx, ProductInput{Name: strPtr("Saw")})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = catalog.CreateProduct(ctx, ProductInput{
			Name: strPtr("Saw"), Price: decPtr("20"), Stock: intPtr(1), CategoryID: uintPtr(999),
		})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = catalog.CreateProduct(ctx, ProductInput{
			Name: strPtr("Saw"), Price: decPtr("-1"), Stock: intPtr(1), CategoryID: uintPtr(tools.ID),
		})
		assert.ErrorIs(t, err, ErrValidation)

		row, err := catalog.CreateProduct(ctx, ProductInput{
			Name: strPtr(" Saw "), Price: decPtr("20.00"), Stock: intPtr(1), CategoryID: uintPtr(tools.ID),
		})
		require.NoError(t, err)
		assert.Equal(t, "Saw", row.Name)
		assert.Equal(t, "Tools", row.CategoryName)
		assert.Zero(t, row.Sales)
	})

	t.Run("list filters by category and search", func(t *testing.T) {
		page, err := catalog.ListProducts(ctx, ProductQuery{CategoryID: tools.ID, Sort: "name"})
		require.NoError(t, err)
		require.Len(t, page.Products, 3)
		assert.Equal(t, "Hammer", page.Products[0].Name)
		assert.Equal(t, int64(3), page.Pagination.Total)

		page, err = catalog.ListProducts(ctx, ProductQuery{Search: "yo"})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.Equal(t, "Toys", page.Products[0].CategoryName)

		_, err = catalog.ListProducts(ctx, ProductQuery{Sort: "price"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("popular orders by sales", func(t *testing.T) {
		rows, err := catalog.PopularProducts(ctx, 2, "", "")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Wrench", rows[0].Name)
		assert.Equal(t, "Yo-yo", rows[1].Name)

		_, err = catalog.PopularProducts(ctx, 0, "2024-13-01", "")
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, DefaultPopularLimit, popularLimit(0))
		assert.Equal(t, MaxPopularLimit, popularLimit(500))
	})

	t.Run("update is partial", func(t *testing.T) {
		page, err := catalog.ListProducts(ctx, ProductQuery{Search: "Hammer"})
		require.NoError(t, err)
		id := page.Products[0].ID

		row, err := catalog.UpdateProduct(ctx, id, ProductInput{Stock: intPtr(0)})
		require.NoError(t, err)
		assert.Equal(t, 0, row.Stock)
		assert.Equal(t, "9.99", row.Price.StringFixed(2))

		_, err = catalog.UpdateProduct(ctx, id, ProductInput{CategoryID: uintPtr(999)})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = catalog.UpdateProduct(ctx, 999, ProductInput{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCatalogDeleteRules(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fx := newFixtures(t, store)
	catalog := NewCatalogService(store, zap.NewNop())
	orders := NewOrderService(store, testEffects(nil), zap.NewNop())

	user := fx.user(models.RoleUser)
	cat := fx.category("Music")
	ordered := fx.product(cat.ID, "Vinyl", "25.00", 5, 0)
	carted := fx.product(cat.ID, "Tape", "5.00", 5, 0)

	fx.cart(user.ID, ordered.ID, 1)
	_, err := orders.Create(ctx, user.ID, "3 Oak Ave")
	require.NoError(t, err)
	fx.cart(user.ID, carted.ID, 2)

	assert.ErrorIs(t, catalog.DeleteCategory(ctx, cat.ID), ErrCategoryInUse)
	assert.ErrorIs(t, catalog.DeleteCategory(ctx, 999), ErrNotFound)

	assert.ErrorIs(t, catalog.DeleteProduct(ctx, ordered.ID), ErrConflict)
	assert.ErrorIs(t, catalog.DeleteProduct(ctx, 999), ErrNotFound)

	require.NoError(t, catalog.DeleteProduct(ctx, carted.ID))
	count, err := store.Carts.Count(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	empty := fx.category("Empty")
	require.NoError(t, catalog.DeleteCategory(ctx, empty.ID))
}

func TestCatalogCategoryDeleteRacesProductCreate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fx := newFixtures(t, store)
	catalog := NewCatalogService(store, zap.NewNop())

	for i := 0; i < 5; i++ {
		cat := fx.category(fmt.Sprintf("Seasonal %d", i))

		var wg sync.WaitGroup
		var deleteErr, createErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			deleteErr = catalog.DeleteCategory(ctx, cat.ID)
		}()
		go func() {
			defer wg.Done()
			_, createErr = catalog.CreateProduct(ctx, ProductInput{
				Name:       strPtr("Wreath"),
				Price:      decPtr("12.00"),
				Stock:      intPtr(3),
				CategoryID: uintPtr(cat.ID),
			})
		}()
		wg.Wait()

		// exactly one side wins; a product never outlives its category
		_, getErr := catalog.GetCategory(ctx, cat.ID)
		if deleteErr == nil {
			assert.ErrorIs(t, getErr, ErrNotFound)
			assert.ErrorIs(t, createErr, ErrValidation)
		} else {
			assert.ErrorIs(t, deleteErr, ErrCategoryInUse)
			require.NoError(t, createErr)
			require.NoError(t, getErr)
		}
	}

	gone := fx.category("Gone")
	require.NoError(t, catalog.DeleteCategory(ctx, gone.ID))
	_, err := catalog.UpdateProduct(ctx, fx.product(fx.category("Kept").ID, "Bell", "2.00", 1, 0).ID,
		ProductInput{CategoryID: uintPtr(gone.ID)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalogCategories(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	fx := newFixtures(t, store)
	catalog := NewCatalogService(store, zap.NewNop())

	_, err := catalog.CreateCategory(ctx, CategoryInput{Name: strPtr("  ")})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := catalog.CreateCategory(ctx, CategoryInput{Name: strPtr("Art"), Description: strPtr("Paint")})
	require.NoError(t, err)
	fx.product(created.ID, "Brush", "3.00", 9, 0)

	list, err := catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ProductCount)

	updated, err := catalog.UpdateCategory(ctx, created.ID, CategoryInput{Name: strPtr("Arts")})
	require.NoError(t, err)
	assert.Equal(t, "Arts", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Paint", *updated.Description)

	_, err = catalog.GetCategory(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
