package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/allsale/allsale-api/internal/catalog"
	"github.com/allsale/allsale-api/internal/postgres"
)

func setupTestDB(t *testing.T) (*Repo, *catalog.Repo) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pg, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("testuser"),
		pgcontainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn))

	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return &Repo{DB: db, FrontendURL: "http://localhost:3000"}, &catalog.Repo{DB: db}
}

func seedVariant(t *testing.T, cat *catalog.Repo) string {
	t.Helper()
	sku := "BW-M"
	p, err := cat.CreateProduct(context.Background(), &catalog.CreateProductInput{
		Handle: "boubou-wax",
		Title:  "Boubou en Wax",
		Variants: []catalog.VariantInput{
			{Title: "M", SKU: &sku, PriceAmount: "15000", PriceCurrency: "XOF", QuantityAvailable: 5},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, p.Variants)
	return p.Variants[0].ID
}

func TestCartLifecycle(t *testing.T) {
	repo, cat := setupTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, cat)

	c, err := repo.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 0, c.TotalQuantity)
	assert.Equal(t, "http://localhost:3000/checkout", c.CheckoutURL)

	// add
	c, err = repo.AddItem(ctx, c.ID, variantID, 2)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.TotalQuantity)
	assert.Equal(t, "30000", c.Cost.TotalAmount.Amount)
	assert.Equal(t, "Boubou en Wax", c.Lines[0].Merchandise.Product.Title)

	// adding the same variant merges quantities
	c, err = repo.AddItem(ctx, c.ID, variantID, 1)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.TotalQuantity)

	// update
	itemID := c.Lines[0].ID
	c, err = repo.UpdateItem(ctx, c.ID, itemID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalQuantity)
	assert.Equal(t, "15000", c.Cost.TotalAmount.Amount)

	// quantity zero removes the line
	c, err = repo.UpdateItem(ctx, c.ID, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
}

func TestRemoveItem(t *testing.T) {
	repo, cat := setupTestDB(t)
	ctx := context.Background()
	variantID := seedVariant(t, cat)

	c, err := repo.Create(ctx)
	require.NoError(t, err)
	c, err = repo.AddItem(ctx, c.ID, variantID, 1)
	require.NoError(t, err)

	c, err = repo.RemoveItem(ctx, c.ID, c.Lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, c.Lines)
	assert.Equal(t, "0", c.Cost.TotalAmount.Amount)
}

func TestCartErrors(t *testing.T) {
	repo, cat := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "cart-missing")
	assert.ErrorIs(t, err, ErrCartNotFound)

	c, err := repo.Create(ctx)
	require.NoError(t, err)
	_, err = repo.AddItem(ctx, c.ID, "variant-missing", 1)
	assert.ErrorIs(t, err, ErrVariantNotFound)

	variantID := seedVariant(t, cat)
	_, err = repo.AddItem(ctx, "cart-missing", variantID, 1)
	assert.ErrorIs(t, err, ErrCartNotFound)
}
